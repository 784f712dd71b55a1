package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/avolkovs/filekeeper/internal/server/services"
)

type addUserRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type addUserResponse struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	DisplayName      string `json:"displayName"`
	BucketIdentifier string `json:"bucketIdentifier"`
}

// handleAddUser serves POST /api/addUser: 200 on success, 409 when the
// username or email is taken.
func (a *API) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var req addUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed body"})
		return
	}

	account, err := a.accounts.Register(r.Context(), &services.RegisterRequest{
		Username:    req.Username,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    req.Password,
	})
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, addUserResponse{
		ID:               account.ID,
		Username:         account.Username,
		Email:            account.Email,
		DisplayName:      account.DisplayName,
		BucketIdentifier: account.BucketIdentifier,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

// handleLogin serves POST /api/login and returns a bearer token.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed body"})
		return
	}

	token, err := a.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token})
}
