package identity

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/goccy/go-json"
)

const identityToolkitURL = "https://identitytoolkit.googleapis.com/v1"

// FirebaseProvider creates accounts with the Admin SDK and verifies passwords
// through the Identity Toolkit REST API, which the Admin SDK does not cover.
type FirebaseProvider struct {
	auth     *auth.Client
	apiKey   string
	endpoint string
	http     *http.Client
}

func NewFirebaseProvider(client *auth.Client, webAPIKey string) *FirebaseProvider {
	return &FirebaseProvider{
		auth:     client,
		apiKey:   webAPIKey,
		endpoint: identityToolkitURL,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *FirebaseProvider) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	params := (&auth.UserToCreate{}).Email(email).Password(password)

	rec, err := p.auth.CreateUser(ctx, params)
	if err != nil {
		return nil, classifyAdminError(err)
	}
	return &Identity{UID: rec.UID, Email: rec.Email}, nil
}

func (p *FirebaseProvider) Delete(ctx context.Context, uid string) error {
	if err := p.auth.DeleteUser(ctx, uid); err != nil {
		return classifyAdminError(err)
	}
	return nil
}

func classifyAdminError(err error) error {
	switch {
	case auth.IsEmailAlreadyExists(err):
		return newError(CodeEmailAlreadyInUse, err)
	case auth.IsUserNotFound(err):
		return newError(CodeInvalidCredential, err)
	case isNetworkError(err):
		return newError(CodeNetworkFailed, err)
	}
	// The Admin SDK validates locally before calling out.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "email"):
		return newError(CodeInvalidEmail, err)
	case strings.Contains(msg, "password"):
		return newError(CodeWeakPassword, err)
	}
	return newError(CodeUnknown, err)
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	LocalID string `json:"localId"`
	Email   string `json:"email"`
}

type toolkitError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	body, err := json.Marshal(signInRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return nil, newError(CodeUnknown, err)
	}

	reqURL, err := url.Parse(p.endpoint + "/accounts:signInWithPassword")
	if err != nil {
		return nil, newError(CodeUnknown, err)
	}
	reqURL.RawQuery = url.Values{"key": {p.apiKey}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, newError(CodeUnknown, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, newError(CodeNetworkFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(CodeNetworkFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		var te toolkitError
		_ = json.Unmarshal(raw, &te)
		return nil, newError(toolkitCode(te.Error.Message), fmt.Errorf("sign in failed %d: %s", resp.StatusCode, te.Error.Message))
	}

	var out signInResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, newError(CodeUnknown, fmt.Errorf("decode sign in response: %w", err))
	}
	return &Identity{UID: out.LocalID, Email: out.Email}, nil
}

// toolkitCode maps Identity Toolkit error messages, which may carry a
// " : detail" suffix, onto the taxonomy.
func toolkitCode(message string) Code {
	key := strings.TrimSpace(strings.SplitN(message, ":", 2)[0])
	switch key {
	case "INVALID_LOGIN_CREDENTIALS", "INVALID_PASSWORD", "EMAIL_NOT_FOUND":
		return CodeInvalidCredential
	case "INVALID_EMAIL":
		return CodeInvalidEmail
	case "USER_DISABLED":
		return CodeUserDisabled
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return CodeTooManyRequests
	case "EMAIL_EXISTS":
		return CodeEmailAlreadyInUse
	case "WEAK_PASSWORD":
		return CodeWeakPassword
	}
	return CodeUnknown
}
