package lunch

import (
	"bytes"
	"crypto/rand"
	"math/big"
	"regexp"

	"github.com/RichardKnop/machinery/v1/tasks"
	"github.com/lunchcrew/lunchbot/cache"
	"github.com/lunchcrew/lunchbot/helpers"
	"github.com/lunchcrew/lunchbot/models"
	"github.com/pkg/errors"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	// TokenLength is the exact length of every issued QR token
	TokenLength = 16

	tokenAlphabet    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxTokenAttempts = 5

	// DeliverQRTaskName is the machinery task retrying failed deliveries
	DeliverQRTaskName = "deliver_lunch_qr"

	qrImageSize = 512
)

var tokenPattern = regexp.MustCompile("^[a-zA-Z0-9]{16}$")

// GenerateToken returns a fresh random token. The characters come from a
// CSPRNG, never from identity fields, so tokens can not be enumerated.
func GenerateToken() (string, error) {
	token := make([]byte, TokenLength)
	max := big.NewInt(int64(len(tokenAlphabet)))

	for i := range token {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		token[i] = tokenAlphabet[n.Int64()]
	}

	return string(token), nil
}

// ValidTokenFormat reports whether $token looks like an issued token.
// Callers reject anything else before touching storage.
func ValidTokenFormat(token string) bool {
	return tokenPattern.MatchString(token)
}

// scansAllowedFor maps a response onto its redemption allowance:
// the responder themselves plus any additional lunches
func scansAllowedFor(responseType string, additionalCount int) int {
	if responseType == models.LunchResponseTypeAdditional {
		return 1 + additionalCount
	}
	return 1
}

// Issuer mints the redeemable token for a confirmed response
type Issuer struct {
	store Store
}

func NewIssuer(store Store) *Issuer {
	return &Issuer{store: store}
}

// Issue attaches a unique token and its scan allowance to $response.
// Collisions are effectively impossible but checked anyway, generation is
// retried a few times before giving up.
func (i *Issuer) Issue(response *models.LunchResponseEntry) (*models.LunchResponseEntry, error) {
	allowed := scansAllowedFor(response.ResponseType, response.AdditionalCount)

	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		token, err := GenerateToken()
		if err != nil {
			return nil, err
		}

		err = i.store.AttachToken(response.ID, token, allowed)
		if err == ErrTokenCollision {
			continue
		}
		if err != nil {
			return nil, err
		}

		response.QRToken = token
		response.TotalScansAllowed = allowed
		response.ScansUsed = 0
		response.ScansRemaining = allowed
		return response, nil
	}

	return nil, errors.Wrap(ErrTokenCollision, "giving up after repeated collisions")
}

// RenderQRPNG renders a token into a scannable PNG
func RenderQRPNG(token string) ([]byte, error) {
	return qrcode.Encode(token, qrcode.Medium, qrImageSize)
}

// DeliverQRCode renders the QR code of a response and DMs it to the user.
// Registered as a machinery task: a failed delivery is retried with backoff
// while the already-persisted token stays valid the whole time.
func DeliverQRCode(responseID string) error {
	store := NewMdbStore()

	response, err := store.ResponseByID(helpers.HumanToMdbId(responseID))
	if err != nil {
		return err
	}
	if response == nil || response.QRToken == "" {
		// nothing to deliver, don't make machinery retry
		return nil
	}
	if response.QRSent {
		return nil
	}

	date := ""
	if poll, err := store.PollByID(response.PollID); err == nil && poll != nil {
		date = poll.Date
	}

	png, err := RenderQRPNG(response.QRToken)
	if err != nil {
		return err
	}

	dmChannel, err := helpers.GetDMChannel(response.DiscordUserID)
	if err != nil {
		return err
	}

	content := "Here is your lunch QR code"
	if date != "" {
		content += " for " + date
	}
	content += ". Show it at the counter, it is good for " +
		humanServings(response.TotalScansAllowed) + "."

	_, err = helpers.SendFile(dmChannel.ID, "lunch-qr.png", bytes.NewReader(png), content)
	if err != nil {
		return err
	}

	return store.MarkQRSent(response.ID)
}

// QueueQRDelivery schedules DeliverQRCode through machinery after a direct
// delivery attempt failed
func QueueQRDelivery(responseID string) error {
	if !cache.HasMachineryServer() {
		return errors.New("machinery server not available")
	}

	_, err := cache.GetMachineryServer().SendTask(&tasks.Signature{
		Name: DeliverQRTaskName,
		Args: []tasks.Arg{
			{Type: "string", Value: responseID},
		},
		RetryCount: 5,
	})

	return err
}
