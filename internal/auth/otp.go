package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// consumeScript checks and consumes a challenge in a single Redis round trip.
// The check and the set must not be separable: two racing verifies for the
// same code would otherwise both pass.
const consumeScript = `
local code = redis.call('HGET', KEYS[1], 'code')
if code == false then return 'expired' end
if redis.call('HGET', KEYS[1], 'consumed') == '1' then return 'used' end
if code ~= ARGV[1] then return 'mismatch' end
redis.call('HSET', KEYS[1], 'consumed', '1')
local lead = redis.call('HGET', KEYS[1], 'lead_id')
if lead == false then lead = '' end
return 'ok:' .. lead
`

// OTPStore issues and consumes short-lived single-use codes for the patient
// login flow. Challenges live in Redis under a TTL; expiry and single-use are
// both enforced there, so horizontally scaled instances share one view.
type OTPStore struct {
	redis   *redis.Client
	ttl     time.Duration
	codeLen int
	tracer  trace.Tracer
}

// NewOTPStore creates a Redis-backed OTP store.
func NewOTPStore(client *redis.Client, ttl time.Duration, codeLen int, tracer trace.Tracer) *OTPStore {
	if client == nil {
		panic("auth: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if codeLen < 4 {
		codeLen = 6
	}
	if tracer == nil {
		tracer = otel.Tracer("caregate.internal.auth.otp")
	}
	return &OTPStore{redis: client, ttl: ttl, codeLen: codeLen, tracer: tracer}
}

// Issue generates a fresh numeric code for the phone, bound to the lead the
// session will be scoped to. Any prior unconsumed challenge for the phone is
// overwritten. Delivery of the code is the caller's concern.
func (s *OTPStore) Issue(ctx context.Context, phone, leadID string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "auth.otp_issue")
	defer span.End()

	code, err := s.generateCode()
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("auth: generate otp: %w", err)
	}

	key := otpKey(phone)
	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, "code", code, "lead_id", leadID, "consumed", "0")
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("auth: store otp challenge: %w", err)
	}
	return code, nil
}

// Verify consumes the challenge for (phone, code) and returns the lead id it
// was issued for. The consume is a single Lua compare-and-set; a second
// verify with the same code fails with ErrOTPAlreadyUsed regardless of races.
func (s *OTPStore) Verify(ctx context.Context, phone, code string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "auth.otp_verify")
	defer span.End()

	res, err := s.redis.Eval(ctx, consumeScript, []string{otpKey(phone)}, code).Result()
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("auth: consume otp challenge: %w", err)
	}

	status, _ := res.(string)
	switch {
	case status == "expired":
		return "", ErrOTPExpired
	case status == "used":
		return "", ErrOTPAlreadyUsed
	case status == "mismatch":
		return "", ErrOTPMismatch
	case strings.HasPrefix(status, "ok:"):
		return strings.TrimPrefix(status, "ok:"), nil
	}
	return "", fmt.Errorf("auth: unexpected otp consume result %q", status)
}

func (s *OTPStore) generateCode() (string, error) {
	var sb strings.Builder
	for i := 0; i < s.codeLen; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}
	return sb.String(), nil
}

func otpKey(phone string) string {
	return fmt.Sprintf("otp:%s", phone)
}
