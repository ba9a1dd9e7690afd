package board

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clubboard/clubboard/internal/app/gateway"
)

func TestReadErr(t *testing.T) {
	if got := readErr(mongo.ErrNoDocuments); !errors.Is(got, gateway.ErrNotFound) {
		t.Errorf("readErr(ErrNoDocuments) = %v, want NotFound", got)
	}

	// A store outage on a pre-read must not masquerade as a missing post.
	for _, err := range []error{
		errors.New("connection reset by peer"),
		context.DeadlineExceeded,
	} {
		if got := readErr(err); !errors.Is(got, gateway.ErrStoreUnavailable) {
			t.Errorf("readErr(%v) = %v, want StoreUnavailable", err, got)
		}
	}
}
