package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Preference keys
const (
	KeyDomain               = "fasten_domain_url"
	KeyAuthToken            = "fasten_auth_token"
	KeyUsername             = "fasten_username"
	KeyPatientRelationships = "patient_relationships"
	KeyFamilyMembers        = "family_members"
	KeyPrivacyMode          = "privacy_mode"
	KeyNotifications        = "notifications_enabled"
)

var allKeys = []string{
	KeyDomain,
	KeyAuthToken,
	KeyUsername,
	KeyPatientRelationships,
	KeyFamilyMembers,
	KeyPrivacyMode,
	KeyNotifications,
}

// RelationshipSelf marks the patient identity that is the signed-in user
const RelationshipSelf = "self"

// PatientRelationship ties a patient id to its relationship with the user
type PatientRelationship struct {
	PatientID    string `json:"id"`
	Relationship string `json:"relationship"`
}

// FamilyMember is someone the user shares record categories with
type FamilyMember struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Relation         string   `json:"relation"`
	SharedCategories []string `json:"sharedCategories"`
}

// Preferences gives typed access to the values the client persists
type Preferences struct {
	store Store
}

// NewPreferences wraps a Store
func NewPreferences(store Store) *Preferences {
	return &Preferences{store: store}
}

func (p *Preferences) getString(key string) (string, error) {
	v, err := p.store.Get(key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

func (p *Preferences) getJSON(key string, out interface{}) error {
	raw, err := p.getString(key)
	if err != nil || raw == "" {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (p *Preferences) setJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return p.store.Set(key, string(data))
}

func (p *Preferences) getBool(key string, def bool) (bool, error) {
	raw, err := p.getString(key)
	if err != nil || raw == "" {
		return def, err
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def, nil
	}
	return b, nil
}

// Domain returns the server base URL, empty when not chosen yet
func (p *Preferences) Domain() (string, error) {
	return p.getString(KeyDomain)
}

// SetDomain stores the server base URL
func (p *Preferences) SetDomain(domain string) error {
	return p.store.Set(KeyDomain, domain)
}

// AuthToken returns the stored token, empty when signed out
func (p *Preferences) AuthToken() (string, error) {
	return p.getString(KeyAuthToken)
}

// SetAuthToken stores the token
func (p *Preferences) SetAuthToken(token string) error {
	return p.store.Set(KeyAuthToken, token)
}

// Username returns the signed-in username
func (p *Preferences) Username() (string, error) {
	return p.getString(KeyUsername)
}

// SetUsername stores the signed-in username
func (p *Preferences) SetUsername(username string) error {
	return p.store.Set(KeyUsername, username)
}

// PatientRelationships lists the relationships the user has designated
func (p *Preferences) PatientRelationships() ([]PatientRelationship, error) {
	var rels []PatientRelationship
	err := p.getJSON(KeyPatientRelationships, &rels)
	return rels, err
}

// SetPatientRelationship records how a patient relates to the user. Only one
// patient can be self: designating a new one demotes the previous one.
func (p *Preferences) SetPatientRelationship(patientID, relationship string) error {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return fmt.Errorf("patient id is required")
	}

	rels, err := p.PatientRelationships()
	if err != nil {
		return err
	}

	out := make([]PatientRelationship, 0, len(rels)+1)
	for _, r := range rels {
		if r.PatientID == patientID {
			continue
		}
		if relationship == RelationshipSelf && r.Relationship == RelationshipSelf {
			continue
		}
		out = append(out, r)
	}
	out = append(out, PatientRelationship{PatientID: patientID, Relationship: relationship})
	return p.setJSON(KeyPatientRelationships, out)
}

// SelfPatientID returns the patient designated as self, empty if none
func (p *Preferences) SelfPatientID() (string, error) {
	rels, err := p.PatientRelationships()
	if err != nil {
		return "", err
	}
	for _, r := range rels {
		if r.Relationship == RelationshipSelf {
			return r.PatientID, nil
		}
	}
	return "", nil
}

// FamilyMembers lists the people records are shared with
func (p *Preferences) FamilyMembers() ([]FamilyMember, error) {
	var members []FamilyMember
	err := p.getJSON(KeyFamilyMembers, &members)
	return members, err
}

// SetFamilyMembers replaces the family member list
func (p *Preferences) SetFamilyMembers(members []FamilyMember) error {
	return p.setJSON(KeyFamilyMembers, members)
}

// PrivacyMode reports whether privacy mode is on, off by default
func (p *Preferences) PrivacyMode() (bool, error) {
	return p.getBool(KeyPrivacyMode, false)
}

// SetPrivacyMode turns privacy mode on or off
func (p *Preferences) SetPrivacyMode(on bool) error {
	return p.store.Set(KeyPrivacyMode, strconv.FormatBool(on))
}

// NotificationsEnabled reports whether notifications are on, on by default
func (p *Preferences) NotificationsEnabled() (bool, error) {
	return p.getBool(KeyNotifications, true)
}

// SetNotificationsEnabled turns notifications on or off
func (p *Preferences) SetNotificationsEnabled(on bool) error {
	return p.store.Set(KeyNotifications, strconv.FormatBool(on))
}

// SignOut forgets the token and username, keeping the domain
func (p *Preferences) SignOut() error {
	for _, key := range []string{KeyAuthToken, KeyUsername} {
		if err := p.store.Remove(key); err != nil {
			return err
		}
	}
	return nil
}

// ChangeDomain clears every stored value and stores the new domain. Data of
// one server never leaks into a session against another.
func (p *Preferences) ChangeDomain(domain string) error {
	for _, key := range allKeys {
		if err := p.store.Remove(key); err != nil {
			return err
		}
	}
	return p.SetDomain(domain)
}
