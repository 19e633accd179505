package youtube

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestParseDurationSeconds(t *testing.T) {
	tests := []struct {
		name     string
		duration string
		expected int
	}{
		{"Empty", "", 0},
		{"Seconds only", "PT45S", 45},
		{"Minutes only", "PT2M", 120},
		{"Hours only", "PT1H", 3600},
		{"Minutes and seconds", "PT1M30S", 90},
		{"Hours and minutes", "PT2H15M", 8100},
		{"Full format", "PT2H15M30S", 8130},
		{"Invalid format", "invalid", 0},
		{"No time components", "PT", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseDurationSeconds(tt.duration); got != tt.expected {
				t.Errorf("parseDurationSeconds(%s) = %d, want %d", tt.duration, got, tt.expected)
			}
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token.json")

	original := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}
	if err := saveToken(tokenFile, original); err != nil {
		t.Fatalf("Failed to save token: %v", err)
	}

	// Tokens hold credentials, so the file must not be group or world
	// readable.
	info, err := os.Stat(tokenFile)
	if err != nil {
		t.Fatalf("Failed to stat token file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Token file permissions = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := tokenFromFile(tokenFile)
	if err != nil {
		t.Fatalf("Failed to load token: %v", err)
	}
	if loaded.AccessToken != original.AccessToken || loaded.RefreshToken != original.RefreshToken {
		t.Errorf("Loaded token mismatch: %+v", loaded)
	}
}

func TestSaveTokenCreatesNestedDirectory(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "nested", "dir", "token.json")

	if err := saveToken(tokenFile, &oauth2.Token{AccessToken: "nested"}); err != nil {
		t.Fatalf("Failed to save token to nested directory: %v", err)
	}
	if _, err := os.Stat(tokenFile); err != nil {
		t.Errorf("Token file was not created: %v", err)
	}
}

func TestTokenFromFileErrors(t *testing.T) {
	tempDir := t.TempDir()

	if _, err := tokenFromFile(filepath.Join(tempDir, "missing.json")); err == nil {
		t.Error("Expected error for missing token file")
	}

	badFile := filepath.Join(tempDir, "bad.json")
	if err := os.WriteFile(badFile, []byte("not json"), 0600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if _, err := tokenFromFile(badFile); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestGetToken(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token.json")
	oauthConfig := &oauth2.Config{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
	}

	t.Run("LoadExistingValidToken", func(t *testing.T) {
		valid := &oauth2.Token{
			AccessToken: "valid-access",
			Expiry:      time.Now().Add(time.Hour),
		}
		if err := saveToken(tokenFile, valid); err != nil {
			t.Fatalf("Failed to save token: %v", err)
		}

		token, err := getToken(context.Background(), oauthConfig, tokenFile)
		if err != nil {
			t.Fatalf("getToken failed: %v", err)
		}
		if token.AccessToken != valid.AccessToken {
			t.Errorf("Access token mismatch: got %s", token.AccessToken)
		}
	})

	t.Run("ExpiredTokenWithRefreshIsKept", func(t *testing.T) {
		expired := &oauth2.Token{
			AccessToken:  "expired-access",
			RefreshToken: "still-good-refresh",
			Expiry:       time.Now().Add(-time.Hour),
		}
		if err := saveToken(tokenFile, expired); err != nil {
			t.Fatalf("Failed to save token: %v", err)
		}

		token, err := getToken(context.Background(), oauthConfig, tokenFile)
		if err != nil {
			t.Fatalf("getToken failed: %v", err)
		}
		if token.RefreshToken != expired.RefreshToken {
			t.Errorf("Refresh token mismatch: got %s", token.RefreshToken)
		}
	})

	t.Run("NoTokenFileStartsDeviceFlow", func(t *testing.T) {
		os.Remove(tokenFile)

		// A canceled context makes the device flow fail immediately
		// instead of reaching out to Google.
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := getToken(ctx, oauthConfig, tokenFile); err == nil {
			t.Error("Expected error when no token exists and the device flow cannot run")
		}
	})
}

func TestTokenSaverConcurrency(t *testing.T) {
	ts := &tokenSaver{
		config: &oauth2.Config{ClientID: "test"},
		token: &oauth2.Token{
			AccessToken:  "initial",
			RefreshToken: "refresh",
		},
		tokenFile: filepath.Join(t.TempDir(), "token.json"),
	}

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			_, _ = ts.Token()
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}
