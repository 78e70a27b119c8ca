package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Хранилище недоступно или отклонило запись
	ErrWrite = errors.New("store write failed")

	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации
	ErrValidationFailed = errors.New("validation failed")

	// Ошибки сущностей
	ErrCourtNotFound      = errors.New("court not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrArenaNotFound      = errors.New("arena not found")
	ErrTournamentNotFound = errors.New("tournament not found")

	// PIN
	ErrPinNotFound    = errors.New("no court matches the given pin")
	ErrPinInvalid     = errors.New("pin must be exactly 4 digits")
	ErrPinUnavailable = errors.New("could not generate an unused pin")
	ErrBindingRevoked = errors.New("court binding no longer valid")

	// Машина состояний
	ErrInvalidCourtTransition      = errors.New("invalid court status transition")
	ErrInvalidMatchTransition      = errors.New("invalid match status transition")
	ErrInvalidTournamentTransition = errors.New("invalid tournament status transition")
	ErrCourtTournamentMismatch     = errors.New("court and match belong to different tournaments")

	// Многошаговые записи
	ErrPartialWrite = errors.New("some writes of a multi-record operation failed")

	// Аутентификация
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthenticationFailed   = errors.New("authentication failed")

	// Файлы
	ErrStorageUnavailable = errors.New("file storage is not configured")
)
