package services

import "errors"

// Sentinel errors shared across services and the HTTP error mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Business rules
	ErrTournoiComplet          = errors.New("tournament no longer accepts submissions")
	ErrTournoiDejaOrganise     = errors.New("tournament already has a host club")
	ErrTournoiAvecDeclarations = errors.New("tournament has declarations and cannot be deleted")
	ErrCandidatureDoublon      = errors.New("club already has an active application for this tournament")
	ErrCandidatureEtatInvalide = errors.New("application is not in a state allowing this action")
	ErrRaisonRefusRequise      = errors.New("a refusal reason is required")

	// Conflicts
	ErrTournoiCleConflict = errors.New("a tournament already exists for this date, category, gender and zone")
	ErrClubNomConflict    = errors.New("a club with this name already exists")

	// Authentication
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrStaffRequired      = errors.New("staff privileges required")

	// Entity-specific not-found (more context than the generic ErrNotFound)
	ErrTournoiNotFound     = errors.New("tournament not found")
	ErrClubNotFound        = errors.New("club not found")
	ErrCandidatureNotFound = errors.New("application not found")
	ErrDeclarationNotFound = errors.New("declaration not found")
	ErrUserNotFound        = errors.New("user not found")
)
