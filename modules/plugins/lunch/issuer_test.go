package lunch

import (
	"strings"
	"testing"

	"github.com/lunchcrew/lunchbot/models"
)

func TestGenerateToken(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		token, err := GenerateToken()
		if err != nil {
			t.Fatal(err)
		}
		if !ValidTokenFormat(token) {
			t.Fatalf("generated token fails its own format check: %q", token)
		}
		for _, c := range token {
			if !strings.ContainsRune(tokenAlphabet, c) {
				t.Fatalf("token %q contains %q outside the alphabet", token, c)
			}
		}
		if seen[token] {
			t.Fatalf("token %q generated twice in 100 draws", token)
		}
		seen[token] = true
	}
}

func TestValidTokenFormat(t *testing.T) {
	tests := []struct {
		token string
		valid bool
	}{
		{"abcDEF1234567890", true},
		{"aaaaaaaaaaaaaaaa", true},
		{"", false},
		{"abcDEF123456789", false},   // 15 chars
		{"abcDEF12345678901", false}, // 17 chars
		{"abcDEF123456789!", false},
		{"abcDEF 123456789", false},
	}

	for _, test := range tests {
		if ValidTokenFormat(test.token) != test.valid {
			t.Fatalf("ValidTokenFormat(%q) != %v", test.token, test.valid)
		}
	}
}

func TestScansAllowedFor(t *testing.T) {
	if got := scansAllowedFor(models.LunchResponseTypeYes, 0); got != 1 {
		t.Fatalf("yes should allow 1 scan, got %d", got)
	}
	// a stray count on a plain yes changes nothing
	if got := scansAllowedFor(models.LunchResponseTypeYes, 3); got != 1 {
		t.Fatalf("yes should allow 1 scan regardless of count, got %d", got)
	}
	if got := scansAllowedFor(models.LunchResponseTypeAdditional, 3); got != 4 {
		t.Fatalf("3 additional lunches should allow 4 scans, got %d", got)
	}
}

func TestIssueAttachesToken(t *testing.T) {
	store := newMemStore()
	ledger, poll := testLedgerWithPoll(store, "2018-05-14")
	user := testUser(store, "100")

	response, err := ledger.RecordResponse(poll, user, models.LunchResponseTypeAdditional, 2)
	if err != nil {
		t.Fatal(err)
	}

	issued, err := NewIssuer(store).Issue(response)
	if err != nil {
		t.Fatal(err)
	}
	if !ValidTokenFormat(issued.QRToken) {
		t.Fatalf("issued token has a bad format: %q", issued.QRToken)
	}
	if issued.TotalScansAllowed != 3 || issued.ScansRemaining != 3 || issued.ScansUsed != 0 {
		t.Fatalf("unexpected allowance: %+v", issued)
	}

	stored, _ := store.ResponseByID(response.ID)
	if stored.QRToken != issued.QRToken {
		t.Fatal("token not persisted on the response")
	}
}

func TestRenderQRPNG(t *testing.T) {
	png, err := RenderQRPNG("abcDEF1234567890")
	if err != nil {
		t.Fatal(err)
	}
	if len(png) == 0 {
		t.Fatal("empty image")
	}
	// PNG magic bytes
	if string(png[1:4]) != "PNG" {
		t.Fatal("output is not a PNG")
	}
}
