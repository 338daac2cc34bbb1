package domain

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidRequest        = errors.New("invalid request")
	ErrProfileRequired       = errors.New("profile is required before asking for guidance")
	ErrQuotaDenied           = errors.New("quota exhausted")
	ErrChartUnavailable      = errors.New("chart unavailable")
	ErrGenerationUnavailable = errors.New("generation unavailable")
	ErrInternalInconsistency = errors.New("internal inconsistency")
	ErrReservationResolved   = errors.New("reservation already resolved")
)

// BusinessError ошибка бизнес-логики, которая уже залогирована в UseCase
type BusinessError struct {
	Err error
}

func (e *BusinessError) Error() string {
	return e.Err.Error()
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func WrapBusinessError(err error) error {
	if err == nil {
		return nil
	}
	return &BusinessError{Err: err}
}

func IsBusinessError(err error) bool {
	var businessErr *BusinessError
	return errors.As(err, &businessErr)
}

// DeniedError отказ в допуске по квоте, несёт актуальный статус использования
type DeniedError struct {
	Usage  UsageStatus
	Window Window
}

func (e *DeniedError) Error() string {
	if e.Usage.LimitMessage != nil {
		return *e.Usage.LimitMessage
	}
	return ErrQuotaDenied.Error()
}

func (e *DeniedError) Unwrap() error {
	return ErrQuotaDenied
}

// AsDenied достаёт DeniedError из цепочки ошибок
func AsDenied(err error) (*DeniedError, bool) {
	var denied *DeniedError
	if errors.As(err, &denied) {
		return denied, true
	}
	return nil, false
}
