// Copyright (c) 2026 Stayvia. All rights reserved.
// Author: dev@stayvia.app

package federated

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/stayvia/stayvia/internal/identity/auth"
)

// Google OAuth 2.0 endpoints.
const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	googleScopes      = "openid email profile"
)

// GoogleProvider implements [Provider] for Google Sign-In.
type GoogleProvider struct {
	clientID     string
	clientSecret string
	callbackURL  string
	httpClient   *http.Client
}

// NewGoogle constructs a Google provider. Returns nil when the client id is
// empty so the registry skips unconfigured providers.
func NewGoogle(clientID, clientSecret, callbackURL string) *GoogleProvider {
	if clientID == "" {
		return nil
	}
	return &GoogleProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		callbackURL:  callbackURL,
		httpClient:   newHTTPClient(),
	}
}

// Name implements [Provider].
func (p *GoogleProvider) Name() string { return auth.ProviderGoogle }

// AuthCodeURL implements [Provider].
func (p *GoogleProvider) AuthCodeURL(state string) string {
	params := url.Values{
		"client_id":     {p.clientID},
		"redirect_uri":  {p.callbackURL},
		"response_type": {"code"},
		"scope":         {googleScopes},
		"state":         {state},
	}
	return googleAuthURL + "?" + params.Encode()
}

// FetchIdentity implements [Provider].
//
// # Flow
//
//  1. POST the authorization code to the token endpoint.
//  2. GET the userinfo endpoint with the returned bearer token.
//  3. Normalize the payload into an [auth.ProviderIdentity].
func (p *GoogleProvider) FetchIdentity(context context.Context, code string) (*auth.ProviderIdentity, error) {
	accessToken, err := p.exchange(context, code)
	if err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(context, http.MethodGet, googleUserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Authorization", "Bearer "+accessToken)

	response, err := p.httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		return nil, exchangeError(auth.ProviderGoogle, "user_info", response.StatusCode, strings.TrimSpace(string(body)))
	}

	var userInfo googleUserInfo
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return nil, exchangeError(auth.ProviderGoogle, "user_info", response.StatusCode, "invalid JSON payload")
	}

	identity := &auth.ProviderIdentity{
		Provider:    auth.ProviderGoogle,
		SubjectID:   userInfo.Sub,
		DisplayName: userInfo.Name,
		AvatarURL:   userInfo.Picture,
	}

	// An unverified Google email is treated as absent: the resolver must
	// never link or create accounts on an address Google cannot vouch for.
	if userInfo.EmailVerified {
		identity.Email = userInfo.Email
	}

	return identity, nil
}

// exchange swaps the authorization code for an access token.
func (p *GoogleProvider) exchange(context context.Context, code string) (string, error) {
	form := url.Values{
		"client_id":     {p.clientID},
		"client_secret": {p.clientSecret},
		"code":          {code},
		"redirect_uri":  {p.callbackURL},
		"grant_type":    {"authorization_code"},
	}

	request, err := http.NewRequestWithContext(context, http.MethodPost, googleTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := p.httpClient.Do(request)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", err
	}

	var tokenResponse googleTokenResponse
	if err := json.Unmarshal(body, &tokenResponse); err != nil {
		return "", exchangeError(auth.ProviderGoogle, "exchange", response.StatusCode, "invalid JSON payload")
	}

	if response.StatusCode != http.StatusOK || tokenResponse.Error != "" {
		detail := tokenResponse.Error
		if tokenResponse.ErrorDesc != "" {
			detail += ": " + tokenResponse.ErrorDesc
		}
		return "", exchangeError(auth.ProviderGoogle, "exchange", response.StatusCode, detail)
	}

	if tokenResponse.AccessToken == "" {
		return "", exchangeError(auth.ProviderGoogle, "exchange", response.StatusCode, "missing access token")
	}

	return tokenResponse.AccessToken, nil
}

type googleTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Picture       string `json:"picture"`
}
