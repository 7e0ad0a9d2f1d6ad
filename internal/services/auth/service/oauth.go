// Package service contains the OAuth login workflows
package service

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"plaza/internal/platform/cache"
	perr "plaza/internal/platform/errors"
	"plaza/internal/platform/logger"
	"plaza/internal/platform/pds"
	"plaza/internal/services/auth/domain"
	identdomain "plaza/internal/services/ident/domain"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/sethvargo/go-retry"
)

// Service defines the auth service contract
type Service interface {
	domain.ServicePort

	Cookies() *CookieCodec
	ClientMetadata() map[string]any
	JWKS() (json.RawMessage, error)
}

// Config tunes the OAuth client
type Config struct {
	// PublicURL is the externally reachable base URL, no trailing slash
	PublicURL string

	// ClientName shows up on consent screens
	ClientName string

	// ClientKey enables confidential client auth (private_key_jwt) when set
	ClientKey jwk.Key
}

// Svc implements the auth service
type Svc struct {
	cfg   Config
	ident identdomain.ServicePort
	cache cache.Cache
	codec *CookieCodec
	hc    *http.Client
}

// pendingTTL bounds how long a login attempt can sit between redirect and callback
const pendingTTL = 15 * time.Minute

const scopes = "atproto transition:generic"

// New constructs an auth service
func New(ident identdomain.ServicePort, c cache.Cache, codec *CookieCodec, cfg Config) *Svc {
	if ident == nil {
		panic("auth.Service requires a non nil ident port")
	}
	if c == nil {
		panic("auth.Service requires a non nil cache")
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	return &Svc{
		cfg:   cfg,
		ident: ident,
		cache: c,
		codec: codec,
		hc:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Cookies exposes the session cookie codec for handlers and middleware
func (s *Svc) Cookies() *CookieCodec { return s.codec }

// pending is the state parked between redirect and callback
type pending struct {
	DID      string          `json:"did"`
	Handle   string          `json:"handle"`
	PDS      string          `json:"pds"`
	Issuer   string          `json:"iss"`
	TokenURL string          `json:"tokenUrl"`
	Verifier string          `json:"verifier"`
	DPoPKey  json.RawMessage `json:"dpopKey"`
}

func stateKey(state string) string { return "oauth:" + state }

// BeginLogin resolves the handle, discovers the authorization server, and
// pushes an authorization request
func (s *Svc) BeginLogin(ctx context.Context, rawHandle string) (domain.LoginOutput, error) {
	did, err := s.ident.ResolveHandle(ctx, rawHandle)
	if err != nil {
		return domain.LoginOutput{}, err
	}
	pdsURL, err := s.ident.PDSFor(ctx, did)
	if err != nil {
		return domain.LoginOutput{}, err
	}

	issuer, err := s.discoverIssuer(ctx, pdsURL)
	if err != nil {
		return domain.LoginOutput{}, err
	}
	meta, err := s.fetchServerMetadata(ctx, issuer)
	if err != nil {
		return domain.LoginOutput{}, err
	}

	// per-login DPoP key and PKCE verifier
	key, keyJSON, err := newDPoPKey()
	if err != nil {
		return domain.LoginOutput{}, err
	}
	verifier := randomToken(48)
	challenge := s256(verifier)
	state := uuid.NewString()

	form := url.Values{
		"client_id":             {s.ClientID()},
		"state":                 {state},
		"redirect_uri":          {s.RedirectURI()},
		"response_type":         {"code"},
		"scope":                 {scopes},
		"code_challenge":        {challenge},
		"code_challenge_method": {"S256"},
		"login_hint":            {rawHandle},
	}
	if err := s.addClientAssertion(form, issuer); err != nil {
		return domain.LoginOutput{}, err
	}

	requestURI, err := s.pushAuthRequest(ctx, meta.PAREndpoint, form, key)
	if err != nil {
		return domain.LoginOutput{}, err
	}

	p := pending{
		DID:      did,
		Handle:   rawHandle,
		PDS:      pdsURL,
		Issuer:   issuer,
		TokenURL: meta.TokenEndpoint,
		Verifier: verifier,
		DPoPKey:  keyJSON,
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return domain.LoginOutput{}, perr.Wrap(err, perr.ErrorCodeUnknown, "marshal pending login")
	}
	if err := s.cache.Set(ctx, stateKey(state), raw, pendingTTL); err != nil {
		return domain.LoginOutput{}, err
	}

	u, err := url.Parse(meta.AuthEndpoint)
	if err != nil {
		return domain.LoginOutput{}, perr.Upstreamf("bad authorization endpoint %q", meta.AuthEndpoint)
	}
	q := u.Query()
	q.Set("client_id", s.ClientID())
	q.Set("request_uri", requestURI)
	u.RawQuery = q.Encode()

	return domain.LoginOutput{RedirectURL: u.String()}, nil
}

// CompleteLogin validates the callback, exchanges the code, and builds a session
// The token exchange retries transient failures with linear backoff
func (s *Svc) CompleteLogin(ctx context.Context, in domain.CallbackInput) (domain.Session, error) {
	if in.Error != "" {
		return domain.Session{}, perr.Forbiddenf("authorization denied: %s", in.Error)
	}
	if in.State == "" || in.Code == "" {
		return domain.Session{}, perr.InvalidArgf("missing state or code")
	}

	raw, ok, err := s.cache.Get(ctx, stateKey(in.State))
	if err != nil {
		return domain.Session{}, err
	}
	if !ok {
		return domain.Session{}, perr.Unauthorizedf("unknown or expired login attempt")
	}
	// single use
	_ = s.cache.Delete(ctx, stateKey(in.State))

	var p pending
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Session{}, perr.Wrap(err, perr.ErrorCodeUnknown, "unmarshal pending login")
	}
	if in.Iss != "" && in.Iss != p.Issuer {
		return domain.Session{}, perr.Unauthorizedf("issuer mismatch")
	}

	key, err := jwk.ParseKey(p.DPoPKey)
	if err != nil {
		return domain.Session{}, perr.Wrap(err, perr.ErrorCodeUnknown, "restore dpop key")
	}

	var tok tokenResponse
	attempt := 0
	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		if attempt > 3 {
			return 0, true
		}
		return time.Duration(attempt) * time.Second, false
	})
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		var terr error
		tok, terr = s.exchangeCode(ctx, p, in.Code, key)
		if terr != nil && perr.Retryable(terr) {
			logger.C(ctx).Warn().Err(terr).Int("attempt", attempt+1).Msg("token exchange retry")
			return retry.RetryableError(terr)
		}
		return terr
	})
	if err != nil {
		return domain.Session{}, err
	}

	if tok.Sub != "" && tok.Sub != p.DID {
		return domain.Session{}, perr.Unauthorizedf("token subject mismatch")
	}

	sess := domain.Session{
		DID:        p.DID,
		Handle:     p.Handle,
		PDS:        p.PDS,
		Issuer:     p.Issuer,
		AccessJWT:  tok.AccessToken,
		RefreshJWT: tok.RefreshToken,
		DPoPKey:    p.DPoPKey,
		ExpiresAt:  time.Now().Add(SessionTTL),
	}

	// profile enrichment is best effort; a cold appview must not fail login
	if prof, perr2 := s.ident.Profile(ctx, p.DID); perr2 == nil {
		sess.Handle = prof.Handle
		sess.DisplayName = prof.DisplayName
		sess.Avatar = prof.Avatar
	} else {
		logger.C(ctx).Warn().Err(perr2).Str("did", p.DID).Msg("profile fetch after login failed")
	}

	return sess, nil
}

// protected resource and server metadata discovery

type serverMetadata struct {
	Issuer        string `json:"issuer"`
	AuthEndpoint  string `json:"authorization_endpoint"`
	TokenEndpoint string `json:"token_endpoint"`
	PAREndpoint   string `json:"pushed_authorization_request_endpoint"`
}

func (s *Svc) discoverIssuer(ctx context.Context, pdsURL string) (string, error) {
	var doc struct {
		AuthorizationServers []string `json:"authorization_servers"`
	}
	if err := s.getJSON(ctx, strings.TrimRight(pdsURL, "/")+"/.well-known/oauth-protected-resource", &doc); err != nil {
		return "", err
	}
	if len(doc.AuthorizationServers) == 0 {
		return "", perr.Upstreamf("pds %s declares no authorization server", pdsURL)
	}
	return doc.AuthorizationServers[0], nil
}

func (s *Svc) fetchServerMetadata(ctx context.Context, issuer string) (serverMetadata, error) {
	var meta serverMetadata
	if err := s.getJSON(ctx, strings.TrimRight(issuer, "/")+"/.well-known/oauth-authorization-server", &meta); err != nil {
		return meta, err
	}
	if meta.Issuer != issuer {
		return meta, perr.Upstreamf("authorization server metadata issuer mismatch")
	}
	if meta.PAREndpoint == "" || meta.TokenEndpoint == "" || meta.AuthEndpoint == "" {
		return meta, perr.Upstreamf("authorization server metadata incomplete")
	}
	return meta, nil
}

func (s *Svc) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "build request")
	}
	resp, err := s.hc.Do(req)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "fetch %s", u)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return perr.Upstreamf("fetch %s: status %d", u, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUpstream, "decode %s", u)
	}
	return nil
}

// pushAuthRequest POSTs the PAR form and returns the request_uri
func (s *Svc) pushAuthRequest(ctx context.Context, parURL string, form url.Values, key jwk.Key) (string, error) {
	client := pds.NewDPoPClient(key, "", 15*time.Second)
	resp, err := postForm(ctx, client, parURL, form)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnavailable, "push authorization request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", perr.Upstreamf("par rejected: status %d: %s", resp.StatusCode, truncate(body))
	}
	var out struct {
		RequestURI string `json:"request_uri"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.RequestURI == "" {
		return "", perr.Upstreamf("par response malformed")
	}
	return out.RequestURI, nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Sub          string `json:"sub"`
	Scope        string `json:"scope"`
}

// exchangeCode redeems the authorization code for DPoP-bound tokens
func (s *Svc) exchangeCode(ctx context.Context, p pending, code string, key jwk.Key) (tokenResponse, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {s.RedirectURI()},
		"client_id":     {s.ClientID()},
		"code_verifier": {p.Verifier},
	}
	if err := s.addClientAssertion(form, p.Issuer); err != nil {
		return tokenResponse{}, err
	}

	client := pds.NewDPoPClient(key, "", 15*time.Second)
	resp, err := postForm(ctx, client, p.TokenURL, form)
	if err != nil {
		return tokenResponse{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "token exchange")
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	switch {
	case resp.StatusCode == http.StatusOK:
		// fallthrough to decode
	case resp.StatusCode >= http.StatusInternalServerError,
		resp.StatusCode == http.StatusTooManyRequests:
		return tokenResponse{}, perr.Unavailablef("token endpoint status %d", resp.StatusCode)
	default:
		return tokenResponse{}, perr.Unauthorizedf("token exchange rejected: %s", truncate(body))
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil || tok.AccessToken == "" {
		return tokenResponse{}, perr.Upstreamf("token response malformed")
	}
	return tok, nil
}

// addClientAssertion attaches private_key_jwt auth when a client key is configured
func (s *Svc) addClientAssertion(form url.Values, audience string) error {
	if s.cfg.ClientKey == nil {
		return nil
	}
	now := time.Now()
	tok, err := jwt.NewBuilder().
		Issuer(s.ClientID()).
		Subject(s.ClientID()).
		Audience([]string{audience}).
		IssuedAt(now).
		Expiration(now.Add(5 * time.Minute)).
		JwtID(uuid.NewString()).
		Build()
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "build client assertion")
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.ES256, s.cfg.ClientKey))
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "sign client assertion")
	}
	form.Set("client_assertion_type", "urn:ietf:params:oauth:client-assertion-type:jwt-bearer")
	form.Set("client_assertion", string(signed))
	return nil
}

// helpers

func postForm(ctx context.Context, client *http.Client, u string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return client.Do(req)
}

func newDPoPKey() (jwk.Key, json.RawMessage, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, perr.Wrap(err, perr.ErrorCodeUnknown, "generate dpop key")
	}
	key, err := jwk.FromRaw(priv)
	if err != nil {
		return nil, nil, perr.Wrap(err, perr.ErrorCodeUnknown, "wrap dpop key")
	}
	raw, err := json.Marshal(key)
	if err != nil {
		return nil, nil, perr.Wrap(err, perr.ErrorCodeUnknown, "serialize dpop key")
	}
	return key, raw, nil
}

func randomToken(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func s256(verifier string) string {
	h := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(h[:])
}

func truncate(b []byte) string {
	const max = 256
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
