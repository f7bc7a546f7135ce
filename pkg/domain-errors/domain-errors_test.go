package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite tests the domain error primitives.
//
// Justification: registry failures cross the service boundary as domain errors,
// so wrapped codes must survive fmt.Errorf chains and errors.Is must match by code.
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorInterface() {
	s.Run("returns message when present", func() {
		err := &Error{Code: CodeNotFound, Message: "account not found"}
		s.Equal("account not found", err.Error())
	})

	s.Run("returns code when message is empty", func() {
		err := &Error{Code: CodeNotFound}
		s.Equal("not_found", err.Error())
	})
}

func (s *DomainErrorsSuite) TestUnwrap() {
	inner := errors.New("connection refused")
	err := &Error{Code: CodeInternal, Message: "registry lookup failed", Err: inner}
	s.Equal(inner, errors.Unwrap(err))
	s.ErrorIs(err, inner)
}

func (s *DomainErrorsSuite) TestIsMatching() {
	s.Run("matches by code only", func() {
		err1 := &Error{Code: CodeInternal, Message: "lookup by hash failed"}
		err2 := &Error{Code: CodeInternal, Message: "lookup by uid failed"}
		s.True(errors.Is(err1, err2))
	})

	s.Run("different codes do not match", func() {
		err1 := &Error{Code: CodeInternal}
		err2 := &Error{Code: CodeUnauthorized}
		s.False(errors.Is(err1, err2))
	})

	s.Run("non-domain target never matches", func() {
		err := &Error{Code: CodeInternal}
		s.False(err.Is(errors.New("internal_error")))
	})
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("wrapping a plain error applies the given code", func() {
		err := Wrap(errors.New("dial tcp: timeout"), CodeInternal, "registry unavailable")
		s.True(HasCode(err, CodeInternal))
		s.Equal("registry unavailable", err.Error())
	})

	s.Run("wrapping a domain error preserves its code", func() {
		inner := New(CodeInvariantViolation, "dangling primary link")
		err := Wrap(inner, CodeInternal, "resolve ban state")
		s.True(HasCode(err, CodeInvariantViolation))
		s.ErrorIs(err, inner)
	})

	s.Run("code survives fmt.Errorf wrapping", func() {
		err := fmt.Errorf("authorize: %w", New(CodeTooManyRequests, "blocked"))
		s.True(HasCode(err, CodeTooManyRequests))
		s.False(HasCode(err, CodeInternal))
	})
}

func (s *DomainErrorsSuite) TestHasCodeNonDomain() {
	s.False(HasCode(errors.New("plain"), CodeInternal))
	s.False(HasCode(nil, CodeInternal))
}

func (s *DomainErrorsSuite) TestCodeOf() {
	code, ok := CodeOf(fmt.Errorf("lookup: %w", New(CodeNotFound, "")))
	s.True(ok)
	s.Equal(CodeNotFound, code)

	_, ok = CodeOf(errors.New("plain"))
	s.False(ok)
}
