package service

import (
	"context"
	"fmt"

	"github.com/hance08/dtl/internal/metadata"
	"github.com/hance08/dtl/internal/model"
	"github.com/hance08/dtl/internal/store"
	"github.com/hance08/dtl/internal/validation"
)

// TransferService answers history queries. It never writes.
type TransferService struct {
	repo store.TransferRepository
	meta MetadataStore
}

func NewTransferService(repo store.TransferRepository, meta MetadataStore) *TransferService {
	return &TransferService{repo: repo, meta: meta}
}

func (ts *TransferService) ListTransfers(ctx context.Context, filter model.TransferFilter) ([]*model.Transfer, error) {
	if filter.Account != "" {
		addr, err := validation.NormalizeAddress(filter.Account)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		filter.Account = addr
	}
	if filter.Status != "" {
		status, err := model.ParseTransferStatus(string(filter.Status))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		filter.Status = status
	}
	return ts.repo.ListTransactions(ctx, filter)
}

func (ts *TransferService) GetTransfer(ctx context.Context, id string) (*model.Transfer, error) {
	return ts.repo.GetTransaction(ctx, id)
}

// GetTransferMetadata fetches the annotation document of a transfer.
func (ts *TransferService) GetTransferMetadata(ctx context.Context, id string) (*model.Transfer, *metadata.Document, error) {
	t, err := ts.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if t.MetadataRef == "" {
		return t, nil, ErrNoMetadata
	}
	if ts.meta == nil {
		return t, nil, metadata.ErrUnavailable
	}

	doc, err := ts.meta.Get(ctx, t.MetadataRef)
	if err != nil {
		return t, nil, err
	}
	return t, &doc, nil
}
