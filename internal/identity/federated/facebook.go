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

// Facebook Graph API endpoints.
const (
	facebookAuthURL     = "https://www.facebook.com/v19.0/dialog/oauth"
	facebookTokenURL    = "https://graph.facebook.com/v19.0/oauth/access_token"
	facebookUserInfoURL = "https://graph.facebook.com/v19.0/me"
	facebookScopes      = "email,public_profile"
)

// FacebookProvider implements [Provider] for Facebook Login.
type FacebookProvider struct {
	clientID     string
	clientSecret string
	callbackURL  string
	httpClient   *http.Client
}

// NewFacebook constructs a Facebook provider. Returns nil when the client id
// is empty so the registry skips unconfigured providers.
func NewFacebook(clientID, clientSecret, callbackURL string) *FacebookProvider {
	if clientID == "" {
		return nil
	}
	return &FacebookProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		callbackURL:  callbackURL,
		httpClient:   newHTTPClient(),
	}
}

// Name implements [Provider].
func (p *FacebookProvider) Name() string { return auth.ProviderFacebook }

// AuthCodeURL implements [Provider].
func (p *FacebookProvider) AuthCodeURL(state string) string {
	params := url.Values{
		"client_id":     {p.clientID},
		"redirect_uri":  {p.callbackURL},
		"response_type": {"code"},
		"scope":         {facebookScopes},
		"state":         {state},
	}
	return facebookAuthURL + "?" + params.Encode()
}

// FetchIdentity implements [Provider].
//
// Facebook accounts registered with a phone number have no email; the
// resolver rejects those identities with MISSING_EMAIL downstream.
func (p *FacebookProvider) FetchIdentity(context context.Context, code string) (*auth.ProviderIdentity, error) {
	accessToken, err := p.exchange(context, code)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"fields":       {"id,name,email,picture.type(large)"},
		"access_token": {accessToken},
	}

	request, err := http.NewRequestWithContext(context, http.MethodGet, facebookUserInfoURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

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
		return nil, exchangeError(auth.ProviderFacebook, "user_info", response.StatusCode, strings.TrimSpace(string(body)))
	}

	var userInfo facebookUserInfo
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return nil, exchangeError(auth.ProviderFacebook, "user_info", response.StatusCode, "invalid JSON payload")
	}

	return &auth.ProviderIdentity{
		Provider:    auth.ProviderFacebook,
		SubjectID:   userInfo.ID,
		Email:       userInfo.Email,
		DisplayName: userInfo.Name,
		AvatarURL:   userInfo.Picture.Data.URL,
	}, nil
}

// exchange swaps the authorization code for an access token.
func (p *FacebookProvider) exchange(context context.Context, code string) (string, error) {
	params := url.Values{
		"client_id":     {p.clientID},
		"client_secret": {p.clientSecret},
		"code":          {code},
		"redirect_uri":  {p.callbackURL},
	}

	request, err := http.NewRequestWithContext(context, http.MethodGet, facebookTokenURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}

	response, err := p.httpClient.Do(request)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", err
	}

	var tokenResponse facebookTokenResponse
	if err := json.Unmarshal(body, &tokenResponse); err != nil {
		return "", exchangeError(auth.ProviderFacebook, "exchange", response.StatusCode, "invalid JSON payload")
	}

	if response.StatusCode != http.StatusOK || tokenResponse.Error.Message != "" {
		return "", exchangeError(auth.ProviderFacebook, "exchange", response.StatusCode, tokenResponse.Error.Message)
	}

	if tokenResponse.AccessToken == "" {
		return "", exchangeError(auth.ProviderFacebook, "exchange", response.StatusCode, "missing access token")
	}

	return tokenResponse.AccessToken, nil
}

type facebookTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

type facebookUserInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}
