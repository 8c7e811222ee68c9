package services

import (
	"testing"

	"github.com/clinscribe/backend/internal/config"
	"github.com/clinscribe/backend/internal/models"
	"github.com/clinscribe/backend/internal/utils"
)

func newTestAuth(t *testing.T) (*AuthService, *models.User) {
	t.Helper()
	utils.SetJWTSecret("test-secret")
	db := newTestDB(t)
	svc := NewAuthService(db, &config.JWTConfig{Secret: "test-secret", ExpireHour: 24})

	hash, err := utils.HashPassword("correct-horse")
	if err != nil {
		t.Fatal(err)
	}
	user := models.User{
		Username: "drsmith",
		Password: hash,
		Role:     "clinician",
		IsActive: true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatal(err)
	}
	return svc, &user
}

func TestAuth_LoginSuccess(t *testing.T) {
	svc, user := newTestAuth(t)

	result, err := svc.Login(&LoginRequest{Username: "drsmith", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.Token == "" {
		t.Error("login should return a token")
	}
	if result.User.ID != user.ID {
		t.Errorf("User.ID = %d, expected %d", result.User.ID, user.ID)
	}

	claims, err := utils.ParseToken(result.Token)
	if err != nil {
		t.Fatalf("token should parse: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != "clinician" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestAuth_LoginFailures(t *testing.T) {
	svc, _ := newTestAuth(t)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "drsmith", "wrong"},
		{"unknown user", "nobody", "correct-horse"},
		{"empty password", "drsmith", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Login(&LoginRequest{Username: tt.username, Password: tt.password}); err == nil {
				t.Error("Login should fail")
			}
		})
	}
}

func TestAuth_LoginDisabledUser(t *testing.T) {
	svc, user := newTestAuth(t)
	svc.db.Model(user).Update("is_active", false)

	if _, err := svc.Login(&LoginRequest{Username: "drsmith", Password: "correct-horse"}); err == nil {
		t.Error("disabled users must not log in")
	}
}

func TestAuth_ChangePassword(t *testing.T) {
	svc, user := newTestAuth(t)

	err := svc.ChangePassword(user.ID, &ChangePasswordRequest{
		OldPassword: "correct-horse",
		NewPassword: "battery-staple",
	})
	if err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}

	if _, err := svc.Login(&LoginRequest{Username: "drsmith", Password: "battery-staple"}); err != nil {
		t.Errorf("login with new password failed: %v", err)
	}
	if _, err := svc.Login(&LoginRequest{Username: "drsmith", Password: "correct-horse"}); err == nil {
		t.Error("old password should be rejected")
	}

	err = svc.ChangePassword(user.ID, &ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "whatever1",
	})
	if err == nil {
		t.Error("wrong old password should fail")
	}
}

func TestAuth_CreateAdminIfNotExists(t *testing.T) {
	svc, _ := newTestAuth(t)

	if err := svc.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("CreateAdminIfNotExists() error = %v", err)
	}
	if err := svc.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("second call error = %v", err)
	}

	var count int64
	svc.db.Model(&models.User{}).Where("role = ?", "admin").Count(&count)
	if count != 1 {
		t.Errorf("admin count = %d, expected 1", count)
	}
}
