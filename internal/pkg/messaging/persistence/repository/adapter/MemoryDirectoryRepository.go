package adapter

import (
	"context"
	"fmt"
	"sync"

	messaging "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/domain"
)

type assignment struct {
	providerID string // doctor or caregiver
	elderID    string
	active     bool
}

// MemoryDirectoryRepository is an in-process directory with the same contract
// as the Postgres adapter. Tests flip assignments active/inactive to exercise
// out-of-band relationship changes.
type MemoryDirectoryRepository struct {
	mu         sync.RWMutex
	users      map[string]messaging.User
	doctors    []assignment // doctor↔elder
	caregivers []assignment // caregiver↔elder
}

func NewMemoryDirectoryRepository() *MemoryDirectoryRepository {
	return &MemoryDirectoryRepository{users: make(map[string]messaging.User)}
}

// AddUser registers a profile. Test/setup helper, not part of the port.
func (r *MemoryDirectoryRepository) AddUser(u messaging.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

// AssignDoctor creates an active doctor↔elder assignment.
func (r *MemoryDirectoryRepository) AssignDoctor(doctorID, elderID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doctors = append(r.doctors, assignment{providerID: doctorID, elderID: elderID, active: true})
}

// AssignCaregiver creates an active caregiver↔elder assignment.
func (r *MemoryDirectoryRepository) AssignCaregiver(caregiverID, elderID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.caregivers = append(r.caregivers, assignment{providerID: caregiverID, elderID: elderID, active: true})
}

// SetDoctorActive toggles the doctor↔elder assignment's active flag.
func (r *MemoryDirectoryRepository) SetDoctorActive(doctorID, elderID string, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.doctors {
		if r.doctors[i].providerID == doctorID && r.doctors[i].elderID == elderID {
			r.doctors[i].active = active
		}
	}
}

// SetCaregiverActive toggles the caregiver↔elder assignment's active flag.
func (r *MemoryDirectoryRepository) SetCaregiverActive(caregiverID, elderID string, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.caregivers {
		if r.caregivers[i].providerID == caregiverID && r.caregivers[i].elderID == elderID {
			r.caregivers[i].active = active
		}
	}
}

func (r *MemoryDirectoryRepository) Profile(_ context.Context, id string) (messaging.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return messaging.User{}, fmt.Errorf("%w: user %s", messaging.ErrNotFound, id)
	}
	return u, nil
}

func (r *MemoryDirectoryRepository) EldersOfDoctor(_ context.Context, doctorID string) ([]messaging.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []messaging.Contact
	for _, a := range r.doctors {
		if a.providerID == doctorID && a.active {
			out = r.appendContact(out, a.elderID, doctorID)
		}
	}
	return out, nil
}

func (r *MemoryDirectoryRepository) EldersOfCaregiver(_ context.Context, caregiverID string) ([]messaging.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []messaging.Contact
	for _, a := range r.caregivers {
		if a.providerID == caregiverID && a.active {
			out = r.appendContact(out, a.elderID, caregiverID)
		}
	}
	return out, nil
}

func (r *MemoryDirectoryRepository) DoctorsOfElder(_ context.Context, elderID string) ([]messaging.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []messaging.Contact
	for _, a := range r.doctors {
		if a.elderID == elderID && a.active {
			out = r.appendContact(out, a.providerID, elderID)
		}
	}
	return out, nil
}

func (r *MemoryDirectoryRepository) CaregiversOfElder(_ context.Context, elderID string) ([]messaging.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []messaging.Contact
	for _, a := range r.caregivers {
		if a.elderID == elderID && a.active {
			out = r.appendContact(out, a.providerID, elderID)
		}
	}
	return out, nil
}

// appendContact resolves id to a contact, skipping the requester and unknown
// users. Callers hold at least a read lock.
func (r *MemoryDirectoryRepository) appendContact(out []messaging.Contact, id, requesterID string) []messaging.Contact {
	if id == requesterID {
		return out
	}
	u, ok := r.users[id]
	if !ok {
		return out
	}
	return append(out, messaging.Contact{ID: u.ID, DisplayName: u.DisplayName, Role: u.Role})
}
