package handlers

import (
	"onmuhasebe/internal/domain/catalogs/cashaccount"
	"onmuhasebe/internal/infrastructure/http/v1/dto"
)

type CashAccountHTTPHandler = CatalogHandler[
	*cashaccount.CashAccount,
	dto.CreateCashAccountRequest,
	dto.UpdateCashAccountRequest,
]

// NewCashAccountHandler wires the generic catalog handler for cash accounts.
func NewCashAccountHandler(base *BaseHandler, service *cashaccount.Service) *CashAccountHTTPHandler {
	config := CatalogHandlerConfig[
		*cashaccount.CashAccount,
		dto.CreateCashAccountRequest,
		dto.UpdateCashAccountRequest,
	]{
		Service:    service,
		EntityName: "cash account",
		MapCreateDTO: func(req dto.CreateCashAccountRequest) *cashaccount.CashAccount {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateCashAccountRequest, existing *cashaccount.CashAccount) *cashaccount.CashAccount {
			req.ApplyTo(existing)
			return existing
		},
	}

	return NewCatalogHandler(base, config)
}
