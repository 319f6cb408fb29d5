package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hance08/dtl/internal/constants"
	"github.com/hance08/dtl/internal/ledger"
	"github.com/hance08/dtl/internal/metadata"
	"github.com/hance08/dtl/internal/metrics"
	"github.com/hance08/dtl/internal/model"
	"github.com/hance08/dtl/internal/store"
	"github.com/hance08/dtl/internal/validation"
	"go.uber.org/zap"
)

type TransferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

type TransferReceipt struct {
	Status            string `json:"status"`
	TransferID        string `json:"transfer_id"`
	MetadataReference string `json:"metadata_reference,omitempty"`
}

// Submitter is the request-driven writer: it annotates, submits to the
// ledger and records the transfer as pending.
type Submitter struct {
	repo    store.TransferRepository
	ledger  LedgerSubmitter
	meta    MetadataStore
	creds   ledger.Credentials
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewSubmitter(repo store.TransferRepository, l LedgerSubmitter, meta MetadataStore, creds ledger.Credentials, logger *zap.Logger, m *metrics.Metrics) *Submitter {
	return &Submitter{
		repo:    repo,
		ledger:  l,
		meta:    meta,
		creds:   creds,
		logger:  logger.Named("submitter"),
		metrics: m,
		now:     time.Now,
	}
}

// Senders lists the provisioned sender addresses.
func (s *Submitter) Senders() []string {
	return s.creds.Addresses()
}

// SubmitTransfer checks the sender against the allow-list before any
// external call, then runs metadata -> ledger -> cache in that order. Only
// an unknown sender, invalid input or a ledger failure fail the call; the
// metadata and cache steps are best effort.
func (s *Submitter) SubmitTransfer(ctx context.Context, req TransferRequest) (*TransferReceipt, error) {
	cred, ok := s.creds.Lookup(req.From)
	if !ok {
		s.metrics.Submissions.WithLabelValues("unknown_sender").Inc()
		return nil, fmt.Errorf("%w: %s", ErrUnknownSender, req.From)
	}
	from := strings.ToLower(cred.Address.Hex())

	to, err := s.validate(req)
	if err != nil {
		s.metrics.Submissions.WithLabelValues("invalid").Inc()
		return nil, err
	}
	if s.ledger == nil {
		return nil, ErrLedgerUnavailable
	}

	log := s.logger.With(zap.String("from", from), zap.String("to", to), zap.Uint64("amount", req.Amount))

	var ref string
	if s.meta != nil {
		doc := metadata.NewDocument(from, to, req.Amount, s.now())
		ref, err = s.meta.Put(ctx, doc)
		if err != nil {
			ref = ""
			s.metrics.MetadataFailures.Inc()
			log.Warn("continuing without metadata reference", zap.NamedError("reason", ErrMetadataUploadFailed), zap.Error(err))
		}
	}

	txHash, err := s.ledger.SubmitTransfer(ctx, cred, to, req.Amount)
	if err != nil {
		s.metrics.Submissions.WithLabelValues("ledger_failed").Inc()
		log.Error("ledger submission failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrLedgerSubmissionFailed, err)
	}
	log = log.With(zap.String("tx_hash", txHash))

	pending := &model.Transfer{
		ID:          txHash,
		From:        from,
		To:          to,
		Amount:      req.Amount,
		Status:      model.StatusPending,
		MetadataRef: ref,
	}
	// the ledger has accepted the transfer; a cache failure is for the
	// confirmer to repair, not for the caller to retry
	if err := s.repo.UpsertTransaction(context.WithoutCancel(ctx), pending); err != nil {
		s.metrics.CacheWriteFailures.WithLabelValues("submitter").Inc()
		log.Error("pending record not written", zap.NamedError("reason", ErrCacheWriteFailed), zap.Error(err))
	}

	s.metrics.Submissions.WithLabelValues(constants.StatusSubmitted).Inc()
	log.Info("transfer submitted", zap.String("metadata_reference", ref))

	return &TransferReceipt{
		Status:            constants.StatusSubmitted,
		TransferID:        txHash,
		MetadataReference: ref,
	}, nil
}

func (s *Submitter) validate(req TransferRequest) (string, error) {
	to, err := validation.NormalizeAddress(req.To)
	if err != nil {
		return "", fmt.Errorf("%w: to: %v", ErrInvalidTransfer, err)
	}
	if err := validation.ValidateAmount(req.Amount); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTransfer, err)
	}
	return to, nil
}

// IsClientError reports whether err was caused by the request itself.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownSender) || errors.Is(err, ErrInvalidTransfer)
}
