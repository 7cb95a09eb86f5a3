package http

import (
	"context"
	"net/http"
	"time"

	"github.com/mrlokans/studyshelf/internal/database/books"
	"github.com/mrlokans/studyshelf/internal/entities"
)

// Store interfaces used by HTTP controllers. Group and progress state goes
// through the engine; only the catalog is read and written directly.

// BookStore provides access to the book catalog.
type BookStore interface {
	CreateBook(ctx context.Context, book *entities.Book) error
	GetBookByID(ctx context.Context, id uint) (*entities.Book, error)
	ListBooks(ctx context.Context, filter books.Filter) (*books.Page, error)
	UpdateBook(ctx context.Context, book *entities.Book) error
	DeleteBook(ctx context.Context, id uint) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping() error
}

// RequestObserver records request latency and engine rejections.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
	ObserveRejection(kind string)
}

// MetricsProvider is a RequestObserver that can also serve its metrics.
type MetricsProvider interface {
	RequestObserver
	Handler() http.Handler
}
