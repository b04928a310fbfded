package lunch

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/lunchcrew/lunchbot/models"
)

func issueTestResponse(t *testing.T, store *memStore, responseType string, additionalCount int) *models.LunchResponseEntry {
	ledger, poll := testLedgerWithPoll(store, "2018-05-14")
	user := testUser(store, "100")

	response, err := ledger.RecordResponse(poll, user, responseType, additionalCount)
	if err != nil {
		t.Fatal(err)
	}
	issued, err := NewIssuer(store).Issue(response)
	if err != nil {
		t.Fatal(err)
	}
	return issued
}

func TestVerifyAndScanUntilExhausted(t *testing.T) {
	store := newMemStore()
	issued := issueTestResponse(t, store, models.LunchResponseTypeAdditional, 3)
	verifier := NewVerifier(store)

	// 1 responder + 3 guests = 4 scans
	for scan := 1; scan <= 4; scan++ {
		result, err := verifier.VerifyAndScan(issued.QRToken, "frontdesk")
		if err != nil {
			t.Fatalf("scan %d failed: %v", scan, err)
		}
		if result.ScanNumber != scan {
			t.Fatalf("expected scan number %d, got %d", scan, result.ScanNumber)
		}
		if result.ScansRemaining != 4-scan {
			t.Fatalf("expected %d scans remaining, got %d", 4-scan, result.ScansRemaining)
		}
		if result.Username != issued.Username || result.PollDate != "2018-05-14" {
			t.Fatalf("unexpected scan result: %+v", result)
		}
	}

	if _, err := verifier.VerifyAndScan(issued.QRToken, "frontdesk"); err != ErrTokenExhausted {
		t.Fatalf("expected ErrTokenExhausted, got %v", err)
	}

	scans, _ := store.ScansForResponse(issued.ID)
	if len(scans) != 4 {
		t.Fatalf("expected 4 scan records, got %d", len(scans))
	}
}

func TestVerifyAndScanInvalidFormat(t *testing.T) {
	verifier := NewVerifier(newMemStore())

	for _, token := range []string{"", "short", "abcDEF123456789", "abcDEF123456789!", "' OR 1=1 --ab"} {
		if _, err := verifier.VerifyAndScan(token, "frontdesk"); err != ErrInvalidTokenFormat {
			t.Fatalf("token %q: expected ErrInvalidTokenFormat, got %v", token, err)
		}
	}
}

func TestVerifyAndScanUnknownToken(t *testing.T) {
	verifier := NewVerifier(newMemStore())

	// well-formed but never issued
	if _, err := verifier.VerifyAndScan("abcDEF1234567890", "frontdesk"); err != ErrTokenNotFound {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestVerifyAndScanCountsAgainstSession(t *testing.T) {
	store := newMemStore()
	issued := issueTestResponse(t, store, models.LunchResponseTypeYes, 0)

	tracker := NewSessionTracker(store, NewLedger(store), nil)
	if _, err := tracker.Start("2018-05-14", "chef"); err != nil {
		t.Fatal(err)
	}

	if _, err := NewVerifier(store).VerifyAndScan(issued.QRToken, "frontdesk"); err != nil {
		t.Fatal(err)
	}

	session, _ := store.SessionByDate("2018-05-14")
	if session.TotalServed != 1 {
		t.Fatalf("scan should count against the active session, got %d served", session.TotalServed)
	}
}

// concurrent scans of the same token must never exceed the allowance,
// no matter how the goroutines interleave
func TestVerifyAndScanConcurrent(t *testing.T) {
	store := newMemStore()
	issued := issueTestResponse(t, store, models.LunchResponseTypeAdditional, 4)
	verifier := NewVerifier(store)

	var succeeded, exhausted int64
	var wg sync.WaitGroup

	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := verifier.VerifyAndScan(issued.QRToken, "frontdesk")
			switch err {
			case nil:
				atomic.AddInt64(&succeeded, 1)
			case ErrTokenExhausted:
				atomic.AddInt64(&exhausted, 1)
			default:
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 5 {
		t.Fatalf("expected exactly 5 successful scans, got %d", succeeded)
	}
	if exhausted != 20 {
		t.Fatalf("expected 20 exhausted scans, got %d", exhausted)
	}

	response, _ := store.ResponseByID(issued.ID)
	if response.ScansUsed != 5 || response.ScansRemaining != 0 {
		t.Fatalf("allowance overshot: %+v", response)
	}
}
