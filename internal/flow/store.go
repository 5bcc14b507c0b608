package flow

import "sync"

// Session data per user di luar workflow; tidak ikut terhapus saat flow di-clear
type Session struct {
	MenuMessageID int
	LastBatchID   string
}

// UserState state satu user. Akses harus lewat Store.Lock.
type UserState struct {
	mu      sync.Mutex
	flow    Flow
	session Session
}

// Flow workflow aktif, nil jika tidak ada
func (u *UserState) Flow() Flow { return u.flow }

// SetFlow mengganti workflow aktif tanpa merge
func (u *UserState) SetFlow(f Flow) { u.flow = f }

// ClearFlow menghapus workflow aktif saja
func (u *UserState) ClearFlow() { u.flow = nil }

// Session data sesi user
func (u *UserState) Session() *Session { return &u.session }

// Unlock melepas kunci user
func (u *UserState) Unlock() { u.mu.Unlock() }

// Store state workflow per user. Kunci hanya per user, tidak ada lock global
// di sekitar logika step.
type Store struct {
	mu    sync.Mutex
	users map[int64]*UserState
}

// NewStore membuat store kosong
func NewStore() *Store {
	return &Store{users: make(map[int64]*UserState)}
}

func (s *Store) get(userID int64) *UserState {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		u = &UserState{}
		s.users[userID] = u
	}
	return u
}

// Lock mengunci state user dan mengembalikannya; panggil Unlock setelah selesai
func (s *Store) Lock(userID int64) *UserState {
	u := s.get(userID)
	u.mu.Lock()
	return u
}

// Start memulai workflow baru, workflow lama dibuang
func (s *Store) Start(userID int64, f Flow) {
	u := s.Lock(userID)
	defer u.Unlock()
	u.SetFlow(f)
}

// Current workflow aktif user
func (s *Store) Current(userID int64) Flow {
	u := s.Lock(userID)
	defer u.Unlock()
	return u.Flow()
}

// Clear menghapus workflow user
func (s *Store) Clear(userID int64) {
	u := s.Lock(userID)
	defer u.Unlock()
	u.ClearFlow()
}

// ClearIf menghapus workflow hanya jika yang tersimpan masih instance f.
// Dipakai batch yang selesai setelah user mungkin sudah memulai workflow lain.
func (s *Store) ClearIf(userID int64, f Flow) bool {
	u := s.Lock(userID)
	defer u.Unlock()
	if u.flow != f {
		return false
	}
	u.ClearFlow()
	return true
}

// SessionOf salinan data sesi user
func (s *Store) SessionOf(userID int64) Session {
	u := s.Lock(userID)
	defer u.Unlock()
	return u.session
}

// Lookup workflow aktif dengan tipe F. ok=false jika tidak ada atau jenisnya beda.
func Lookup[F Flow](u *UserState) (F, bool) {
	f, ok := u.Flow().(F)
	return f, ok
}
