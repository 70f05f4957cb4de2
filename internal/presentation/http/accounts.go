package httppresentation

import (
	"errors"
	"net/http"

	"github.com/Zhima-Mochi/shophub/internal/application"
	appaccount "github.com/Zhima-Mochi/shophub/internal/application/account"
	domaccount "github.com/Zhima-Mochi/shophub/internal/domain/account"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User  userSummary `json:"user"`
	Token string      `json:"token"`
}

type adminSessionResponse struct {
	Token string      `json:"token"`
	Admin userSummary `json:"admin"`
}

type profileRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err, "Failed to register")
		return
	}
	s, err := h.svc.Accounts.Register(r.Context(), appaccount.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		h.writeDomainError(w, r, err, "Failed to register")
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{User: newUserSummary(s.User), Token: s.Token})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err, "Failed to login")
		return
	}
	s, err := h.svc.Accounts.Login(r.Context(), appaccount.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		h.writeDomainError(w, r, err, "Failed to login")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: newUserSummary(s.User), Token: s.Token})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Accounts.Me(r.Context(), principalID(r))
	if err != nil {
		h.writeDomainError(w, r, err, "Failed to fetch user")
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(u))
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err, "Failed to update profile")
		return
	}
	u, err := h.svc.Accounts.UpdateProfile(r.Context(), principalID(r), domaccount.Profile{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
		City:    req.City,
		Zip:     req.Zip,
		Country: req.Country,
	})
	if err != nil {
		h.writeDomainError(w, r, err, "Failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(u))
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid password")
		return
	}
	err := h.svc.Accounts.ChangePassword(r.Context(), appaccount.ChangePasswordInput{
		UserID:          principalID(r),
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if _, ok := application.AsValidation(err); ok {
		writeMessage(w, http.StatusBadRequest, "Invalid password")
		return
	}
	if err != nil {
		h.writeDomainError(w, r, err, "Failed to change password")
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err, "Failed to login")
		return
	}
	s, err := h.svc.Accounts.AdminLogin(r.Context(), appaccount.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		h.writeDomainError(w, r, err, "Failed to login")
		return
	}
	writeJSON(w, http.StatusOK, adminSessionResponse{Token: s.Token, Admin: newAdminSummary(s.Admin)})
}

func (h *Handler) handleAdminMe(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Accounts.AdminMe(r.Context(), principalID(r))
	if err != nil {
		if errors.Is(err, appaccount.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Admin not found")
			return
		}
		h.writeDomainError(w, r, err, "Failed to fetch admin")
		return
	}
	writeJSON(w, http.StatusOK, newAdminSummary(a))
}
