package dto

import (
	"github.com/shopspring/decimal"

	"onmuhasebe/internal/core/entity"
	"onmuhasebe/internal/domain/catalogs/cashaccount"
	"onmuhasebe/internal/domain/catalogs/party"
	"onmuhasebe/internal/domain/catalogs/product"
)

// --- Party ---

type CreatePartyRequest struct {
	Code          string           `json:"code" binding:"required"`
	Name          string           `json:"name" binding:"required"`
	Kind          entity.PartyKind `json:"kind" binding:"required"`
	Phone         *string          `json:"phone,omitempty"`
	Email         *string          `json:"email,omitempty"`
	Address       *string          `json:"address,omitempty"`
	TaxNumber     *string          `json:"taxNumber,omitempty"`
	ContactPerson *string          `json:"contactPerson,omitempty"`
}

func (r *CreatePartyRequest) ToEntity() *party.Party {
	p := party.New(r.Code, r.Name, r.Kind)
	p.Phone = r.Phone
	p.Email = r.Email
	p.Address = r.Address
	p.TaxNumber = r.TaxNumber
	p.ContactPerson = r.ContactPerson
	return p
}

type UpdatePartyRequest struct {
	Code          *string `json:"code,omitempty"`
	Name          *string `json:"name,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Email         *string `json:"email,omitempty"`
	Address       *string `json:"address,omitempty"`
	TaxNumber     *string `json:"taxNumber,omitempty"`
	ContactPerson *string `json:"contactPerson,omitempty"`
}

// ApplyTo merges the non-nil fields into an existing party.
// Kind and Balance are immutable through this endpoint: the kind anchors
// posting directions and the balance belongs to the ledger.
func (r *UpdatePartyRequest) ApplyTo(p *party.Party) {
	if r.Code != nil {
		p.Code = *r.Code
	}
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Phone != nil {
		p.Phone = r.Phone
	}
	if r.Email != nil {
		p.Email = r.Email
	}
	if r.Address != nil {
		p.Address = r.Address
	}
	if r.TaxNumber != nil {
		p.TaxNumber = r.TaxNumber
	}
	if r.ContactPerson != nil {
		p.ContactPerson = r.ContactPerson
	}
}

// --- Product ---

type CreateProductRequest struct {
	Code        string           `json:"code" binding:"required"`
	Name        string           `json:"name" binding:"required"`
	Unit        string           `json:"unit,omitempty"`
	MinQuantity *decimal.Decimal `json:"minQuantity,omitempty"`
	CostPrice   *decimal.Decimal `json:"costPrice,omitempty"`
	SalePrice   *decimal.Decimal `json:"salePrice,omitempty"`
	VATRate     *decimal.Decimal `json:"vatRate,omitempty"`
	Barcode     *string          `json:"barcode,omitempty"`
}

func (r *CreateProductRequest) ToEntity() *product.Product {
	p := product.New(r.Code, r.Name)
	if r.Unit != "" {
		p.Unit = r.Unit
	}
	if r.MinQuantity != nil {
		p.MinQuantity = *r.MinQuantity
	}
	if r.CostPrice != nil {
		p.CostPrice = *r.CostPrice
	}
	if r.SalePrice != nil {
		p.SalePrice = *r.SalePrice
	}
	if r.VATRate != nil {
		p.VATRate = *r.VATRate
	}
	p.Barcode = r.Barcode
	return p
}

type UpdateProductRequest struct {
	Code        *string          `json:"code,omitempty"`
	Name        *string          `json:"name,omitempty"`
	Unit        *string          `json:"unit,omitempty"`
	MinQuantity *decimal.Decimal `json:"minQuantity,omitempty"`
	CostPrice   *decimal.Decimal `json:"costPrice,omitempty"`
	SalePrice   *decimal.Decimal `json:"salePrice,omitempty"`
	VATRate     *decimal.Decimal `json:"vatRate,omitempty"`
	Barcode     *string          `json:"barcode,omitempty"`
}

// ApplyTo merges the non-nil fields into an existing product.
// Quantity stays untouched: on-hand belongs to the stock register.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) {
	if r.Code != nil {
		p.Code = *r.Code
	}
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Unit != nil {
		p.Unit = *r.Unit
	}
	if r.MinQuantity != nil {
		p.MinQuantity = *r.MinQuantity
	}
	if r.CostPrice != nil {
		p.CostPrice = *r.CostPrice
	}
	if r.SalePrice != nil {
		p.SalePrice = *r.SalePrice
	}
	if r.VATRate != nil {
		p.VATRate = *r.VATRate
	}
	if r.Barcode != nil {
		p.Barcode = r.Barcode
	}
}

// --- CashAccount ---

type CreateCashAccountRequest struct {
	Code           string           `json:"code" binding:"required"`
	Name           string           `json:"name" binding:"required"`
	Kind           cashaccount.Kind `json:"kind" binding:"required"`
	Currency       string           `json:"currency,omitempty"`
	OpeningBalance *decimal.Decimal `json:"openingBalance,omitempty"`
	BankName       *string          `json:"bankName,omitempty"`
	IBAN           *string          `json:"iban,omitempty"`
}

func (r *CreateCashAccountRequest) ToEntity() *cashaccount.CashAccount {
	a := cashaccount.New(r.Code, r.Name, r.Kind)
	if r.Currency != "" {
		a.Currency = r.Currency
	}
	if r.OpeningBalance != nil {
		a.OpeningBalance = *r.OpeningBalance
		a.Balance = *r.OpeningBalance
	}
	a.BankName = r.BankName
	a.IBAN = r.IBAN
	return a
}

type UpdateCashAccountRequest struct {
	Code     *string `json:"code,omitempty"`
	Name     *string `json:"name,omitempty"`
	Currency *string `json:"currency,omitempty"`
	BankName *string `json:"bankName,omitempty"`
	IBAN     *string `json:"iban,omitempty"`
}

// ApplyTo merges the non-nil fields into an existing account.
// Kind, opening balance and cached balance are not editable here.
func (r *UpdateCashAccountRequest) ApplyTo(a *cashaccount.CashAccount) {
	if r.Code != nil {
		a.Code = *r.Code
	}
	if r.Name != nil {
		a.Name = *r.Name
	}
	if r.Currency != nil {
		a.Currency = *r.Currency
	}
	if r.BankName != nil {
		a.BankName = r.BankName
	}
	if r.IBAN != nil {
		a.IBAN = r.IBAN
	}
}
