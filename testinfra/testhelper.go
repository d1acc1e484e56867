package testinfra

import (
	"context"
	"io/ioutil"
	"kycflow/authority"
	"kycflow/session"
	"net/http"
	"net/http/httptest"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

// BuildSession build a session of the staff member uid acting with the given role names
func BuildSession(uid types.ID, branchID *types.ID, perms ...string) *session.Session {
	return &session.Session{
		Token:    "test-token",
		Identity: session.Identity{ID: uid, Name: "user" + uid.String()},
		Perms:    authority.Permissions(perms),
		BranchID: branchID,
		Context:  context.Background(),
	}
}

func IDRef(id types.ID) *types.ID {
	return &id
}

func IntRef(v int) *int {
	return &v
}

func ExecuteRequest(req *http.Request, engine *gin.Engine) (int, string, http.Header) {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	bodyBytes, err := ioutil.ReadAll(w.Body)
	if err != nil {
		panic(err)
	}
	return w.Code, string(bodyBytes), w.Header()
}
