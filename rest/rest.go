package rest

import (
	"fmt"
	"net/http"
	"time"

	"github.com/emicklei/go-restful"
	"github.com/getsentry/raven-go"
	rediscache "github.com/go-redis/cache"
	"github.com/lunchcrew/lunchbot/cache"
	"github.com/lunchcrew/lunchbot/metrics"
	"github.com/lunchcrew/lunchbot/models"
	"github.com/lunchcrew/lunchbot/modules/plugins/lunch"
	uuid "github.com/satori/go.uuid"
	"golang.org/x/crypto/bcrypt"
)

const pollStatusCacheTTL = 10 * time.Second

func NewRestServices() []*restful.WebService {
	services := make([]*restful.WebService, 0)

	service := new(restful.WebService)
	service.
		Path("/lunch").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	service.Route(service.GET("/health").To(GetHealth))
	service.Route(service.POST("/login").To(PostStaffLogin))
	service.Route(service.GET("/polls/{date}").Filter(requireStaff).To(GetPollStatus))
	service.Route(service.POST("/qr/verify").Filter(requireStaff).To(PostVerifyQR))
	service.Route(service.POST("/sessions/{date}/start").Filter(requireStaff).To(PostStartSession))
	service.Route(service.POST("/sessions/{date}/end").Filter(requireStaff).To(PostEndSession))
	services = append(services, service)

	return services
}

func GetHealth(request *restful.Request, response *restful.Response) {
	response.WriteEntity(map[string]string{"status": "ok"})
}

// PostStaffLogin trades staff credentials for a bearer token. Failed logins
// get the same answer no matter whether the user exists.
func PostStaffLogin(request *restful.Request, response *restful.Response) {
	var loginRequest models.Rest_StaffLoginRequest
	if err := request.ReadEntity(&loginRequest); err != nil {
		response.WriteErrorString(http.StatusBadRequest, "400: bad request")
		return
	}

	plugin := lunch.Default()
	if plugin == nil {
		response.WriteErrorString(http.StatusServiceUnavailable, "503: not ready")
		return
	}

	staffUser, err := plugin.Store().StaffUserByName(loginRequest.Username)
	if err != nil {
		raven.CaptureError(err, map[string]string{})
		response.WriteErrorString(http.StatusInternalServerError, "500: internal error")
		return
	}

	if staffUser == nil ||
		bcrypt.CompareHashAndPassword(staffUser.PasswordHash, []byte(loginRequest.Password)) != nil {
		response.WriteErrorString(http.StatusUnauthorized, "401: invalid credentials")
		return
	}

	token, err := uuid.NewV4()
	if err != nil {
		raven.CaptureError(err, map[string]string{})
		response.WriteErrorString(http.StatusInternalServerError, "500: internal error")
		return
	}

	session := models.Rest_StaffSession{
		Token:     token.String(),
		Username:  staffUser.Username,
		ExpiresAt: time.Now().Add(staffSessionTTL),
	}

	err = cache.GetRedisCacheCodec().Set(&rediscache.Item{
		Key:        fmt.Sprintf(models.Redis_Key_StaffSession, session.Token),
		Object:     session,
		Expiration: staffSessionTTL,
	})
	if err != nil {
		raven.CaptureError(err, map[string]string{})
		response.WriteErrorString(http.StatusInternalServerError, "500: internal error")
		return
	}

	response.WriteEntity(session)
}

// GetPollStatus returns the day's poll counters plus the session summary.
// Responses are cached briefly in redis so dashboard polling stays cheap.
func GetPollStatus(request *restful.Request, response *restful.Response) {
	date := request.PathParameter("date")

	cacheCodec := cache.GetRedisCacheCodec()
	key := fmt.Sprintf(models.Redis_Key_PollStatusCache, date)

	var status models.Rest_PollStatus
	if err := cacheCodec.Get(key, &status); err == nil {
		response.WriteEntity(status)
		return
	}

	plugin := lunch.Default()
	if plugin == nil {
		response.WriteErrorString(http.StatusServiceUnavailable, "503: not ready")
		return
	}

	poll, err := plugin.Store().PollByDate(date)
	if err != nil {
		raven.CaptureError(err, map[string]string{})
		response.WriteErrorString(http.StatusInternalServerError, "500: internal error")
		return
	}
	if poll == nil {
		response.WriteErrorString(http.StatusNotFound, "404: no poll for that date")
		return
	}

	status = models.Rest_PollStatus{
		Date:                poll.Date,
		Status:              poll.Status,
		TotalResponses:      poll.TotalResponses,
		YesResponses:        poll.YesResponses,
		AdditionalResponses: poll.AdditionalResponses,
	}

	if session, sessionErr := plugin.Sessions().SessionForDate(date); sessionErr == nil && session != nil {
		status.Session = models.Rest_SessionSummary{
			Status:        session.Status,
			StartedBy:     session.StartedBy,
			EndedBy:       session.EndedBy,
			StartTime:     session.StartTime,
			EndTime:       session.EndTime,
			TotalExpected: session.TotalExpected,
			TotalServed:   session.TotalServed,
		}
	}

	cacheCodec.Set(&rediscache.Item{
		Key:        key,
		Object:     status,
		Expiration: pollStatusCacheTTL,
	})

	response.WriteEntity(status)
}

// PostVerifyQR redeems one presented QR token on behalf of the logged-in
// staff member. Rejections come back as result codes, not http errors, so
// the scanner UI can show them directly.
func PostVerifyQR(request *restful.Request, response *restful.Response) {
	var verifyRequest models.Rest_QRVerificationRequest
	if err := request.ReadEntity(&verifyRequest); err != nil {
		response.WriteErrorString(http.StatusBadRequest, "400: bad request")
		return
	}

	plugin := lunch.Default()
	if plugin == nil {
		response.WriteErrorString(http.StatusServiceUnavailable, "503: not ready")
		return
	}

	scannedBy := verifyRequest.ScannedBy
	if scannedBy == "" {
		scannedBy = staffUsername(request)
	}

	result, err := plugin.Verifier().VerifyAndScan(verifyRequest.QRToken, scannedBy)
	switch err {
	case nil:
		metrics.LunchQRScans.Add(1)
		response.WriteEntity(models.Rest_ScanResult{
			Result:         "ok",
			ScanNumber:     result.ScanNumber,
			ScansRemaining: result.ScansRemaining,
			Username:       result.Username,
			RealName:       result.RealName,
			PollDate:       result.PollDate,
		})
	case lunch.ErrInvalidTokenFormat:
		response.WriteEntity(models.Rest_ScanResult{Result: "invalid_format"})
	case lunch.ErrTokenNotFound:
		response.WriteEntity(models.Rest_ScanResult{Result: "not_found"})
	case lunch.ErrTokenExhausted:
		response.WriteEntity(models.Rest_ScanResult{Result: "exhausted"})
	default:
		raven.CaptureError(err, map[string]string{})
		response.WriteErrorString(http.StatusInternalServerError, "500: internal error")
	}
}

func PostStartSession(request *restful.Request, response *restful.Response) {
	date := request.PathParameter("date")

	plugin := lunch.Default()
	if plugin == nil {
		response.WriteErrorString(http.StatusServiceUnavailable, "503: not ready")
		return
	}

	session, err := plugin.Sessions().Start(date, staffUsername(request))
	switch err {
	case nil:
		response.WriteEntity(sessionSummary(session))
	case lunch.ErrSessionAlreadyActive:
		response.WriteErrorString(http.StatusConflict, "409: session already started")
	default:
		raven.CaptureError(err, map[string]string{})
		response.WriteErrorString(http.StatusInternalServerError, "500: internal error")
	}
}

func PostEndSession(request *restful.Request, response *restful.Response) {
	date := request.PathParameter("date")

	plugin := lunch.Default()
	if plugin == nil {
		response.WriteErrorString(http.StatusServiceUnavailable, "503: not ready")
		return
	}

	session, err := plugin.Sessions().End(date, staffUsername(request))
	switch err {
	case nil:
		response.WriteEntity(sessionSummary(session))
	case lunch.ErrSessionNotActive:
		response.WriteErrorString(http.StatusConflict, "409: no active session")
	default:
		raven.CaptureError(err, map[string]string{})
		response.WriteErrorString(http.StatusInternalServerError, "500: internal error")
	}
}

func sessionSummary(session *models.LunchSessionEntry) models.Rest_SessionSummary {
	return models.Rest_SessionSummary{
		Status:        session.Status,
		StartedBy:     session.StartedBy,
		EndedBy:       session.EndedBy,
		StartTime:     session.StartTime,
		EndTime:       session.EndTime,
		TotalExpected: session.TotalExpected,
		TotalServed:   session.TotalServed,
	}
}
