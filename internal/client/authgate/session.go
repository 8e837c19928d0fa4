package authgate

import (
	"sync"

	"github.com/dmitrijs2005/gophchat/internal/client/sidebar"
	"github.com/dmitrijs2005/gophchat/internal/client/store"
	"github.com/dmitrijs2005/gophchat/internal/models"
)

// Session is everything that lives between sign-in and sign-out.
type Session struct {
	User    models.User
	Store   *store.Store
	Sidebar *sidebar.Controller

	stop func()
	once sync.Once
}

// Dispose stops background reconciliation and drops the caches. It is safe
// to call more than once.
func (s *Session) Dispose() {
	s.once.Do(func() {
		if s.stop != nil {
			s.stop()
		}
		s.Sidebar.Close()
		s.Store.Clear()
	})
}
