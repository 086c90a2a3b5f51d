package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/pazardigital/walletd/internal/handlers/render"
	"github.com/pazardigital/walletd/internal/models"
	"github.com/pazardigital/walletd/internal/repository"
)

// Clients read the total from this header to drive pagination UI
const totalCountHeader = "x-total-count"

// bindListQuery fills pagination and ordering from query params.
// Missing params keep zero values, the service applies defaults.
func bindListQuery(r *http.Request, opts *repository.ListOpts) error {
	q := r.URL.Query()
	opts.Order = q.Get("order")

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return fmt.Errorf("limit %q is not a valid number", v)
		}
		opts.Limit = limit
	}

	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return fmt.Errorf("offset %q is not a valid number", v)
		}
		opts.Offset = offset
	}

	return nil
}

func renderTransactionList(w http.ResponseWriter, transactions []models.Transaction, total int64) {
	response := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		response = append(response, toTransactionResponse(t))
	}

	w.Header().Set(totalCountHeader, strconv.FormatInt(total, 10))
	render.JSON(w, response)
}

func renderDepositRequestList(w http.ResponseWriter, requests []models.DepositRequest, total int64) {
	response := make([]depositRequestResponse, 0, len(requests))
	for _, dr := range requests {
		response = append(response, toDepositRequestResponse(dr))
	}

	w.Header().Set(totalCountHeader, strconv.FormatInt(total, 10))
	render.JSON(w, response)
}
