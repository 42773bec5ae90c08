package browser

import (
	"errors"
	"fmt"
	"sync"
)

// SessionOptions configures Acquire.
type SessionOptions struct {
	Launch  LaunchOptions
	Context ContextOptions
}

// Session ties one driver, browser, context and page together for the
// lifetime of a single scenario. It is not safe for concurrent use; each
// scenario owns its own session.
type Session struct {
	driver  Driver
	browser Browser
	context Context
	page    Page

	closeOnce sync.Once
	closeErr  error
	closed    bool
}

// Acquire starts a driver, launches a browser, opens an isolated context and
// its first page. When any stage fails, everything acquired so far is
// released before the error is returned.
func Acquire(newDriver DriverFactory, opts SessionOptions) (*Session, error) {
	s := &Session{}

	driver, err := newDriver()
	if err != nil {
		return nil, fmt.Errorf("start driver: %w", err)
	}
	s.driver = driver

	b, err := driver.Launch(opts.Launch)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("launch browser: %w", err), s.Close())
	}
	s.browser = b

	c, err := b.NewContext(opts.Context)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("new context: %w", err), s.Close())
	}
	s.context = c

	p, err := c.NewPage()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("new page: %w", err), s.Close())
	}
	s.page = p

	return s, nil
}

// Page returns the active page: the most recently opened page of the
// context. Pages opened by the application (target=_blank, window.open)
// therefore become active as soon as they exist.
func (s *Session) Page() (Page, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.context == nil {
		return nil, ErrNoPage
	}
	pages := s.context.Pages()
	if len(pages) == 0 {
		return nil, ErrNoPage
	}
	return pages[len(pages)-1], nil
}

// Close releases pages, context, browser and driver, in that order. Only the
// first call does any work; later calls return the same error.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closed = true
		var errs []error

		if s.context != nil {
			pages := s.context.Pages()
			for i := len(pages) - 1; i >= 0; i-- {
				if err := pages[i].Close(); err != nil {
					errs = append(errs, fmt.Errorf("close page: %w", err))
				}
			}
		} else if s.page != nil {
			if err := s.page.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close page: %w", err))
			}
		}
		if s.context != nil {
			if err := s.context.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close context: %w", err))
			}
		}
		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close browser: %w", err))
			}
		}
		if s.driver != nil {
			if err := s.driver.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("stop driver: %w", err))
			}
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
