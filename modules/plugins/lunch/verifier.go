package lunch

import (
	"time"

	"github.com/lunchcrew/lunchbot/models"
)

// ScanResult is what front-desk staff get back for a successful scan
type ScanResult struct {
	ScanNumber     int
	ScansRemaining int
	Username       string
	RealName       string
	PollDate       string
}

// Verifier validates presented tokens and records redemptions. The
// exhaustion check and the claim happen in one conditional storage write
// (Store.ClaimScan), so concurrent scans of the same token can never push
// past the allowance, regardless of how many bot processes run.
type Verifier struct {
	store Store
	now   func() time.Time
}

func NewVerifier(store Store) *Verifier {
	return &Verifier{
		store: store,
		now:   time.Now,
	}
}

// VerifyAndScan redeems $token once on behalf of $scannedBy.
// Fails with ErrInvalidTokenFormat (before any storage access),
// ErrTokenNotFound or ErrTokenExhausted.
func (v *Verifier) VerifyAndScan(token string, scannedBy string) (*ScanResult, error) {
	if !ValidTokenFormat(token) {
		return nil, ErrInvalidTokenFormat
	}

	response, err := v.store.ClaimScan(token)
	if err != nil {
		return nil, err
	}

	pollDate := ""
	if poll, pollErr := v.store.PollByID(response.PollID); pollErr == nil && poll != nil {
		pollDate = poll.Date
	}

	_, err = v.store.AppendScan(models.QRScanEntry{
		ResponseID:        response.ID,
		DiscordUserID:     response.DiscordUserID,
		Username:          response.Username,
		ScannedBy:         scannedBy,
		ScannedAt:         v.now(),
		PollDate:          pollDate,
		ScanNumber:        response.ScansUsed,
		TotalScansAllowed: response.TotalScansAllowed,
	})
	if err != nil {
		return nil, err
	}

	// count the serving against the day's session, if one is running
	if pollDate != "" {
		if servedErr := v.store.AddServed(pollDate, 1); servedErr != nil && servedErr != ErrSessionNotActive {
			return nil, servedErr
		}
	}

	return &ScanResult{
		ScanNumber:     response.ScansUsed,
		ScansRemaining: response.ScansRemaining,
		Username:       response.Username,
		RealName:       response.RealName,
		PollDate:       pollDate,
	}, nil
}
