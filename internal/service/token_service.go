package service

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/kioskgate/internal/config"
	"github.com/kioskgate/internal/store"
)

// ErrInvalidToken 表示令牌不是合法的非负整数。
var ErrInvalidToken = errors.New("invalid token")

// TokenService 负责滚动令牌的发放与单次核销语义。
type TokenService struct {
	ledger  store.Ledger
	gameURL string
}

// NewTokenService 创建 TokenService。
func NewTokenService(ledger store.Ledger, gameURL string) *TokenService {
	return &TokenService{ledger: ledger, gameURL: gameURL}
}

// Current 返回海报当前展示的令牌。
func (s *TokenService) Current() (int64, error) {
	return s.ledger.CurrentToken()
}

// Consume 尝试核销令牌，仅首次核销返回 true。
func (s *TokenService) Consume(token int64, now time.Time) (bool, error) {
	if token < 0 {
		return false, ErrInvalidToken
	}
	return s.ledger.ConsumeToken(token, now)
}

// AdvanceIfCurrent 在令牌等于当前指针时将指针推进一位，
// 过期令牌不影响指针。
func (s *TokenService) AdvanceIfCurrent(token int64) error {
	return s.ledger.AdvanceIfCurrent(token)
}

// ConsumedAt 返回令牌首次核销的时间，仅用于展示。
func (s *TokenService) ConsumedAt(token int64) (time.Time, bool, error) {
	return s.ledger.ConsumedAt(token)
}

// GameRedirectURL 构造扫码成功后跳转的外部游戏地址，
// 配置中的占位符会被替换为令牌值。
func (s *TokenService) GameRedirectURL(token int64) string {
	return strings.ReplaceAll(s.gameURL, config.TokenPlaceholder, strconv.FormatInt(token, 10))
}

// ParseToken 将路径参数解析为非负整数令牌。
func ParseToken(raw string) (int64, error) {
	token, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || token < 0 {
		return 0, ErrInvalidToken
	}
	return token, nil
}
