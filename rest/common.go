package rest

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/emicklei/go-restful"
	"github.com/lunchcrew/lunchbot/cache"
	"github.com/lunchcrew/lunchbot/models"
)

const staffSessionTTL = 12 * time.Hour

// getStaffSession resolves a bearer token to its stored session,
// nil when the token is unknown or expired
func getStaffSession(token string) *models.Rest_StaffSession {
	if token == "" {
		return nil
	}

	var session models.Rest_StaffSession
	key := fmt.Sprintf(models.Redis_Key_StaffSession, token)
	if err := cache.GetRedisCacheCodec().Get(key, &session); err != nil {
		return nil
	}

	return &session
}

func bearerToken(request *restful.Request) string {
	header := request.Request.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// requireStaff guards routes that only logged-in staff may call
func requireStaff(request *restful.Request, response *restful.Response, chain *restful.FilterChain) {
	session := getStaffSession(bearerToken(request))
	if session == nil {
		response.WriteErrorString(http.StatusUnauthorized, "401: not authorized")
		return
	}

	request.SetAttribute("staff-username", session.Username)
	chain.ProcessFilter(request, response)
}

func staffUsername(request *restful.Request) string {
	if username, ok := request.Attribute("staff-username").(string); ok {
		return username
	}
	return ""
}
