package submission

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"hearsay/internal/admission"
	"hearsay/internal/dispatch"
	"hearsay/internal/models"
)

// Admitter is the admission gate.
type Admitter interface {
	Admit(ctx context.Context, req admission.Request) (models.Metadata, error)
}

// Fingerprinter derives a content identity for a remote file.
type Fingerprinter interface {
	Fingerprint(ctx context.Context, url string, meta models.Metadata) (string, error)
}

// Store is the part of the record store submission needs.
type Store interface {
	FindDuplicate(ctx context.Context, inputURL, fingerprint string) (*models.Record, error)
	InsertIfAbsent(ctx context.Context, rec models.NewRecord) (int64, bool, error)
}

// Service turns a submitted URL into a record id, creating and dispatching
// work only when the file has not been seen before.
type Service struct {
	gate          Admitter
	fingerprinter Fingerprinter
	store         Store
	dispatcher    dispatch.Dispatcher
}

func NewService(gate Admitter, fingerprinter Fingerprinter, store Store, dispatcher dispatch.Dispatcher) *Service {
	return &Service{
		gate:          gate,
		fingerprinter: fingerprinter,
		store:         store,
		dispatcher:    dispatcher,
	}
}

// Submit returns the id of the record tracking url. Every failure is a
// *models.Failure with a distinct reason. A record whose dispatch fails is
// kept in NOT_STARTED for the stale sweep to pick up.
func (s *Service) Submit(ctx context.Context, url, clientID string) (id int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Submission: recovered from panic for %s: %v", url, r)
			id, err = 0, models.Fail(models.ReasonUnknown, fmt.Errorf("panic: %v", r))
		}
	}()

	url = strings.TrimSpace(url)
	meta, err := s.gate.Admit(ctx, admission.Request{URL: url, ClientID: clientID})
	if err != nil {
		return 0, asFailure(err)
	}

	fingerprint, err := s.fingerprinter.Fingerprint(ctx, url, meta)
	if err != nil {
		log.Printf("Submission: failed to fingerprint %s: %v", url, err)
		return 0, models.Fail(models.ReasonFileHashFail, err)
	}

	existing, err := s.store.FindDuplicate(ctx, url, fingerprint)
	if err != nil {
		log.Printf("Submission: duplicate lookup failed for %s: %v", url, err)
		return 0, models.Fail(models.ReasonUnknown, err)
	}
	if existing != nil {
		log.Printf("Submission: %s matches existing record %d", url, existing.ID)
		return existing.ID, nil
	}

	id, created, err := s.store.InsertIfAbsent(ctx, models.NewRecord{
		InputURL:    url,
		Fingerprint: fingerprint,
		Metadata:    meta,
	})
	if err != nil {
		return 0, models.Fail(models.ReasonDBInsertFail, err)
	}
	if !created {
		log.Printf("Submission: %s was inserted concurrently as record %d", url, id)
		return id, nil
	}

	if err := s.dispatcher.Dispatch(ctx, url, id); err != nil {
		log.Printf("Submission: failed to dispatch record %d: %v", id, err)
		return 0, models.Fail(models.ReasonTranscribeKickoffFail, err)
	}

	log.Printf("Submission: created record %d for %s", id, url)
	return id, nil
}

func asFailure(err error) *models.Failure {
	var f *models.Failure
	if errors.As(err, &f) {
		return f
	}
	return models.Fail(models.ReasonUnknown, err)
}
