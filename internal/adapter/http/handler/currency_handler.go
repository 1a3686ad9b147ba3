package handler

import (
	"net/http"

	"github.com/iho/fintrack/internal/adapter/http/dto"
	"github.com/iho/fintrack/internal/adapter/rates"
)

// CurrencyHandler describes the normalization setup.
type CurrencyHandler struct {
	base string
	peg  *rates.Peg
}

// NewCurrencyHandler creates a CurrencyHandler. peg may be nil.
func NewCurrencyHandler(base string, peg *rates.Peg) *CurrencyHandler {
	return &CurrencyHandler{base: base, peg: peg}
}

// List returns the base currency and the configured peg.
func (h *CurrencyHandler) List(w http.ResponseWriter, r *http.Request) {
	resp := dto.CurrenciesResponse{Base: h.base}
	if h.peg != nil {
		resp.Peg = &dto.PegResponse{
			Currency: h.peg.Pegged,
			Anchor:   h.peg.Anchor,
			Rate:     h.peg.Units.String(),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
