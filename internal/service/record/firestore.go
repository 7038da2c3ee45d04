package record

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	recordsCollection = "profiles"
	// keysCollection holds one guard document per Key, named by the key's
	// hash and written in the same transaction as its record.
	keysCollection = "profile_keys"
)

// firestoreRecord maps to Firestore document structure.
type firestoreRecord struct {
	StageName       string    `firestore:"stageName"`
	FullName        string    `firestore:"fullName"`
	City            string    `firestore:"city"`
	State           string    `firestore:"state"`
	PhoneNumber     string    `firestore:"phoneNumber"`
	ExperienceLevel string    `firestore:"experienceLevel"`
	Age             string    `firestore:"age"`
	Email           string    `firestore:"email"`
	SocialMedia     string    `firestore:"socialMedia"`
	HeardAbout      string    `firestore:"heardAbout"`
	StageNameLower  string    `firestore:"stageNameLower"`
	EmailLower      string    `firestore:"emailLower"`
	CreatedAt       time.Time `firestore:"createdAt"`
	UpdatedAt       time.Time `firestore:"updatedAt"`
}

type firestoreKeyGuard struct {
	RecordID string `firestore:"recordId"`
}

func toFirestore(r *Record) firestoreRecord {
	k := r.Key()
	return firestoreRecord{
		StageName:       r.StageName,
		FullName:        r.FullName,
		City:            r.City,
		State:           r.State,
		PhoneNumber:     r.PhoneNumber,
		ExperienceLevel: r.ExperienceLevel,
		Age:             r.Age,
		Email:           r.Email,
		SocialMedia:     r.SocialMedia,
		HeardAbout:      r.HeardAbout,
		StageNameLower:  k.StageName,
		EmailLower:      k.Email,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func (fr firestoreRecord) toRecord(id string) *Record {
	return &Record{
		ID:              id,
		StageName:       fr.StageName,
		FullName:        fr.FullName,
		City:            fr.City,
		State:           fr.State,
		PhoneNumber:     fr.PhoneNumber,
		ExperienceLevel: fr.ExperienceLevel,
		Age:             fr.Age,
		Email:           fr.Email,
		SocialMedia:     fr.SocialMedia,
		HeardAbout:      fr.HeardAbout,
		CreatedAt:       fr.CreatedAt.UTC(),
		UpdatedAt:       fr.UpdatedAt.UTC(),
	}
}

// FirestoreStore implements Store on Firestore. Uniqueness rests on the
// key guard documents; every mutation runs in one transaction that reads
// all it needs before writing.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new Firestore-backed store. The store owns
// client and closes it in Close.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) records() *firestore.CollectionRef {
	return s.client.Collection(recordsCollection)
}

func (s *FirestoreStore) guardRef(k Key) *firestore.DocumentRef {
	return s.client.Collection(keysCollection).Doc(guardID(k))
}

// guardID names the guard document for k. Keys can hold characters that
// are not valid in document IDs, so the ID is a digest.
func guardID(k Key) string {
	sum := sha256.Sum256([]byte(k.StageName + "\x00" + k.Email))
	return hex.EncodeToString(sum[:])
}

// readGuard returns the record ID holding the guard, or "" if unclaimed.
func readGuard(tx *firestore.Transaction, ref *firestore.DocumentRef) (string, error) {
	doc, err := tx.Get(ref)
	if status.Code(err) == codes.NotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var g firestoreKeyGuard
	if err := doc.DataTo(&g); err != nil {
		return "", err
	}
	return g.RecordID, nil
}

func readRecord(tx *firestore.Transaction, ref *firestore.DocumentRef) (*firestoreRecord, error) {
	doc, err := tx.Get(ref)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var fr firestoreRecord
	if err := doc.DataTo(&fr); err != nil {
		return nil, err
	}
	return &fr, nil
}

func (s *FirestoreStore) Insert(ctx context.Context, r *Record) (*Record, error) {
	docRef := s.records().NewDoc()
	guard := s.guardRef(r.Key())

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		owner, err := readGuard(tx, guard)
		if err != nil {
			return err
		}
		if owner != "" {
			return duplicateOf(r)
		}
		if err := tx.Create(docRef, toFirestore(r)); err != nil {
			return err
		}
		return tx.Create(guard, firestoreKeyGuard{RecordID: docRef.ID})
	})
	if err != nil {
		return nil, s.wrap("insert", r, err)
	}
	return toFirestore(r).toRecord(docRef.ID), nil
}

func (s *FirestoreStore) Replace(ctx context.Context, id string, r *Record) (*Record, error) {
	docRef := s.records().Doc(id)
	newKey := r.Key()

	var result *Record
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := readRecord(tx, docRef)
		if err != nil {
			return err
		}
		oldKey := NewKey(existing.StageName, existing.Email)
		if oldKey != newKey {
			owner, err := readGuard(tx, s.guardRef(newKey))
			if err != nil {
				return err
			}
			if owner != "" && owner != id {
				return duplicateOf(r)
			}
			if err := tx.Delete(s.guardRef(oldKey)); err != nil {
				return err
			}
			if err := tx.Set(s.guardRef(newKey), firestoreKeyGuard{RecordID: id}); err != nil {
				return err
			}
		}

		fr := toFirestore(r)
		fr.CreatedAt = existing.CreatedAt
		if err := tx.Set(docRef, fr); err != nil {
			return err
		}
		result = fr.toRecord(id)
		return nil
	})
	if err != nil {
		return nil, s.wrap("replace", r, err)
	}
	return result, nil
}

func (s *FirestoreStore) Upsert(ctx context.Context, r *Record) (*Record, UpsertResult, error) {
	guard := s.guardRef(r.Key())
	newDoc := s.records().NewDoc()

	var (
		result  *Record
		outcome UpsertResult
	)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		owner, err := readGuard(tx, guard)
		if err != nil {
			return err
		}

		fr := toFirestore(r)
		if owner == "" {
			if err := tx.Create(newDoc, fr); err != nil {
				return err
			}
			if err := tx.Create(guard, firestoreKeyGuard{RecordID: newDoc.ID}); err != nil {
				return err
			}
			result, outcome = fr.toRecord(newDoc.ID), Created
			return nil
		}

		docRef := s.records().Doc(owner)
		existing, err := readRecord(tx, docRef)
		switch {
		case errors.Is(err, ErrNotFound):
			// orphaned guard: recreate the record under the guarded ID
			outcome = Created
		case err != nil:
			return err
		default:
			fr.CreatedAt = existing.CreatedAt
			outcome = Updated
		}
		if err := tx.Set(docRef, fr); err != nil {
			return err
		}
		result = fr.toRecord(owner)
		return nil
	})
	if err != nil {
		return nil, 0, s.wrap("upsert", r, err)
	}
	return result, outcome, nil
}

func (s *FirestoreStore) Delete(ctx context.Context, id string) error {
	docRef := s.records().Doc(id)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := readRecord(tx, docRef)
		if err != nil {
			return err
		}
		if err := tx.Delete(docRef); err != nil {
			return err
		}
		return tx.Delete(s.guardRef(NewKey(existing.StageName, existing.Email)))
	})
	if err != nil {
		return s.wrap("delete", nil, err)
	}
	return nil
}

func (s *FirestoreStore) Get(ctx context.Context, id string) (*Record, error) {
	doc, err := s.records().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("firestore get: %w", err)
	}
	var fr firestoreRecord
	if err := doc.DataTo(&fr); err != nil {
		return nil, fmt.Errorf("firestore decode: %w", err)
	}
	return fr.toRecord(doc.Ref.ID), nil
}

func (s *FirestoreStore) List(ctx context.Context) ([]*Record, error) {
	iter := s.records().OrderBy("createdAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var out []*Record
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore list: %w", err)
		}
		var fr firestoreRecord
		if err := doc.DataTo(&fr); err != nil {
			return nil, fmt.Errorf("firestore decode: %w", err)
		}
		out = append(out, fr.toRecord(doc.Ref.ID))
	}
	return out, nil
}

func (s *FirestoreStore) Ping(ctx context.Context) error {
	iter := s.records().Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("firestore ping: %w", err)
	}
	return nil
}

func (s *FirestoreStore) Close(context.Context) error {
	return s.client.Close()
}

// wrap passes domain errors through and maps a lost create race to a
// duplicate.
func (s *FirestoreStore) wrap(op string, r *Record, err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDuplicate):
		return err
	case status.Code(err) == codes.AlreadyExists && r != nil:
		return duplicateOf(r)
	default:
		return fmt.Errorf("firestore %s: %w", op, err)
	}
}

var _ Store = (*FirestoreStore)(nil)
