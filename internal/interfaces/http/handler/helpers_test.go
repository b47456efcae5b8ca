package handler_test

import (
	"context"
	"testing"

	transferapp "github.com/erp/retailcore/internal/application/transfer"
	"github.com/erp/retailcore/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func createTransfer(t *testing.T, h *testutil.Harness, from, to uuid.UUID, serials ...string) uuid.UUID {
	t.Helper()
	req := transferapp.CreateTransferRequest{FromBranchID: from, ToBranchID: to}
	for _, s := range serials {
		req.Items = append(req.Items, transferapp.CreateTransferItem{SerialNo: s, TransferPrice: decimal.NewFromInt(20)})
	}
	tr, err := h.Transfers.Create(context.Background(), req, "clerk-1")
	require.NoError(t, err)
	return tr.ID
}
