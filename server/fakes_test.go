package server_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"voxshare/model"
	"voxshare/repository"
)

// In-memory repository fakes backing the handler tests.

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User)}
}

func (r *fakeUserRepo) CreateUser(user *model.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return 0, repository.ErrDuplicateUser
		}
	}
	r.nextID++
	stored := *user
	stored.ID = r.nextID
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.users[stored.ID] = &stored
	return stored.ID, nil
}

func (r *fakeUserRepo) GetUserByID(id int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetUserByEmail(email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdateProfile(userID int64, username, profilePicture string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil
	}
	if username != "" {
		for id, other := range r.users {
			if id != userID && other.Username == username {
				return repository.ErrDuplicateUser
			}
		}
		u.Username = username
	}
	if profilePicture != "" {
		u.ProfilePicture = profilePicture
	}
	u.UpdatedAt = time.Now()
	return nil
}

type fakeAudioRepo struct {
	mu     sync.Mutex
	nextID int64
	audios map[int64]*model.Audio
	users  *fakeUserRepo
}

func newFakeAudioRepo(users *fakeUserRepo) *fakeAudioRepo {
	return &fakeAudioRepo{audios: make(map[int64]*model.Audio), users: users}
}

func (r *fakeAudioRepo) Create(ctx context.Context, audio *model.Audio) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	audio.ID = r.nextID
	// Monotonic timestamps keep newest-first ordering deterministic.
	audio.CreatedAt = time.Now().Add(time.Duration(r.nextID) * time.Millisecond)
	audio.UpdatedAt = audio.CreatedAt
	stored := *audio
	r.audios[audio.ID] = &stored
	return nil
}

func (r *fakeAudioRepo) GetByID(ctx context.Context, id int64) (*model.Audio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.audios[id]
	if !ok {
		return nil, repository.ErrAudioNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *fakeAudioRepo) GetWithOwner(ctx context.Context, id int64) (*model.PublicAudio, error) {
	a, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.withOwner(a), nil
}

func (r *fakeAudioRepo) withOwner(a *model.Audio) *model.PublicAudio {
	pa := &model.PublicAudio{Audio: *a}
	if owner, _ := r.users.GetUserByID(a.UserID); owner != nil {
		pa.Username = owner.Username
		pa.ProfilePicture = owner.ProfilePicture
	}
	return pa
}

func (r *fakeAudioRepo) ListByUser(ctx context.Context, userID int64) ([]*model.Audio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Audio, 0)
	for _, a := range r.audios {
		if a.UserID == userID {
			copied := *a
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeAudioRepo) ListPublic(ctx context.Context) ([]*model.PublicAudio, error) {
	r.mu.Lock()
	audios := make([]*model.Audio, 0)
	for _, a := range r.audios {
		if a.IsPublic {
			copied := *a
			audios = append(audios, &copied)
		}
	}
	r.mu.Unlock()

	sort.Slice(audios, func(i, j int) bool { return audios[i].CreatedAt.After(audios[j].CreatedAt) })
	out := make([]*model.PublicAudio, 0, len(audios))
	for _, a := range audios {
		out = append(out, r.withOwner(a))
	}
	return out, nil
}

func (r *fakeAudioRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.audios[id]; !ok {
		return repository.ErrAudioNotFound
	}
	delete(r.audios, id)
	return nil
}

func (r *fakeAudioRepo) IncrementPlays(ctx context.Context, id int64) (*model.Audio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.audios[id]
	if !ok {
		return nil, repository.ErrAudioNotFound
	}
	a.Plays++
	copied := *a
	return &copied, nil
}

func (r *fakeAudioRepo) SetWhatsappLink(ctx context.Context, id int64, link string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.audios[id]; ok {
		a.WhatsappLink = link
	}
	return nil
}
