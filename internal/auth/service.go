package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"retrodrome/backend/internal/models"
	"retrodrome/backend/pkg/jwt"
)

// ErrInvalidCredentials is returned for a wrong email/password pair.
var ErrInvalidCredentials = errors.New("invalid credentials")

const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// Service is the identity provider: it owns account records, performs
// sign-in and sign-out, and pushes session change notifications to
// subscribers (the SessionStore). Sign-in failures are logged and emit
// no event, so subscribers simply never see a transition.
type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	googleClientID string

	// Overridable for tests.
	httpClient   *http.Client
	tokenInfoURL string

	mu      sync.Mutex
	current *Identity
	nextSub int
	subs    map[int]func(*Identity)
}

func NewService(db *gorm.DB, log *zap.Logger, googleClientID string) *Service {
	return &Service{
		db:             db,
		log:            log,
		googleClientID: googleClientID,
		httpClient:     http.DefaultClient,
		tokenInfoURL:   googleTokenInfoURL,
		subs:           make(map[int]func(*Identity)),
	}
}

// OnAuthStateChanged registers fn and synchronously delivers the current
// session state as the initial event.
func (s *Service) OnAuthStateChanged(fn func(*Identity)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	current := s.current
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Service) emit(user *Identity) {
	s.mu.Lock()
	s.current = user
	fns := make([]func(*Identity), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(user)
	}
}

// Register creates an email/password account and signs it in.
func (s *Service) Register(ctx context.Context, nickname, email, password string) (string, *Identity, error) {
	var existing models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return "", nil, fmt.Errorf("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}

	user := models.User{
		Nickname:     nickname,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		s.log.Error("registration failed", zap.String("email", email), zap.Error(err))
		return "", nil, err
	}

	return s.signIn(&user)
}

// Login verifies an email/password pair and signs the account in.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Identity, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		s.log.Info("sign-in failed", zap.String("email", email))
		return "", nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.log.Info("sign-in failed", zap.String("email", email))
		return "", nil, ErrInvalidCredentials
	}
	return s.signIn(&user)
}

// googleTokenInfo is the subset of the tokeninfo response we act on.
type googleTokenInfo struct {
	Aud   string `json:"aud"`
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SignInWithGoogle verifies a Google ID token against the tokeninfo
// endpoint, creates the account on first sign-in, and signs it in.
func (s *Service) SignInWithGoogle(ctx context.Context, idToken string) (string, *Identity, error) {
	info, err := s.verifyGoogleToken(ctx, idToken)
	if err != nil {
		s.log.Warn("google sign-in failed", zap.Error(err))
		return "", nil, err
	}

	var user models.User
	err = s.db.WithContext(ctx).Where("google_sub = ?", info.Sub).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Nickname:  info.Name,
			Email:     info.Email,
			GoogleSub: info.Sub,
		}
		if user.Nickname == "" {
			user.Nickname = info.Email
		}
		err = s.db.WithContext(ctx).Create(&user).Error
	}
	if err != nil {
		s.log.Error("google sign-in failed", zap.Error(err))
		return "", nil, err
	}

	return s.signIn(&user)
}

func (s *Service) verifyGoogleToken(ctx context.Context, idToken string) (*googleTokenInfo, error) {
	reqURL := s.tokenInfoURL + "?id_token=" + url.QueryEscape(idToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token rejected (status %d)", resp.StatusCode)
	}

	var info googleTokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	if info.Aud != s.googleClientID {
		return nil, fmt.Errorf("token issued for a different client")
	}
	return &info, nil
}

func (s *Service) signIn(user *models.User) (string, *Identity, error) {
	token, err := jwt.GenerateToken(user.ID)
	if err != nil {
		return "", nil, err
	}

	identity := &Identity{
		ID:       user.ID,
		Nickname: user.Nickname,
		Email:    user.Email,
		Role:     user.Role,
	}
	s.emit(identity)
	s.log.Info("signed in", zap.Uint("user_id", user.ID))
	return token, identity, nil
}

// LogOut clears the session and notifies subscribers. Errors propagate
// to the caller, unlike sign-in failures.
func (s *Service) LogOut(ctx context.Context) error {
	s.emit(nil)
	s.log.Info("signed out")
	return nil
}
