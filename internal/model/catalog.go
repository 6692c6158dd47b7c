package model

import (
	"fmt"
	"sort"
)

// RoleID identifies a role in the catalog
type RoleID string

const (
	RoleVillager  RoleID = "villager"
	RoleWerewolf  RoleID = "werewolf"
	RoleSeer      RoleID = "seer"
	RoleWitch     RoleID = "witch"
	RoleBodyguard RoleID = "bodyguard"
	RoleCupid     RoleID = "cupid"
	RoleHunter    RoleID = "hunter"
	RoleWildChild RoleID = "wild_child"
	RoleTrickster RoleID = "trickster"
)

// PowerID identifies a role power
type PowerID string

const (
	PowerSeerReveal       PowerID = "seer_reveal"
	PowerWitchSave        PowerID = "witch_save"
	PowerWitchPoison      PowerID = "witch_poison"
	PowerBodyguardProtect PowerID = "bodyguard_protect"
	PowerCupidLink        PowerID = "cupid_link"
	PowerHunterShot       PowerID = "hunter_shot"
	PowerWildChildModel   PowerID = "wild_child_model"
	PowerTricksterSwap    PowerID = "trickster_swap"
)

// ItemID identifies a shop item
type ItemID string

const (
	ItemDoubleVote ItemID = "double_vote"
	ItemImmunity   ItemID = "immunity"
)

// Role is static catalog data for one role
type Role struct {
	ID     RoleID    `json:"id"`
	Name   string    `json:"name"`
	Team   Faction   `json:"team"`
	Active bool      `json:"active"`
	Powers []PowerID `json:"powers,omitempty"`
}

// Power is static catalog data for one role power.
//
// UsesPerGame of 0 means unlimited. A power with NightOnly unset may be used
// in any active phase.
type Power struct {
	ID             PowerID    `json:"id"`
	Role           RoleID     `json:"role"`
	Name           string     `json:"name"`
	NightOnly      bool       `json:"night_only"`
	UsesPerGame    int        `json:"uses_per_game"`
	OncePerPhase   bool       `json:"once_per_phase"`
	FirstNightOnly bool       `json:"first_night_only"`
	Targets        int        `json:"targets"`
	Visibility     Visibility `json:"visibility"`
}

// Item is a purchasable shop modifier
type Item struct {
	ID   ItemID `json:"id"`
	Name string `json:"name"`
	Cost int    `json:"cost"`
}

var roles = map[RoleID]Role{
	RoleVillager:  {ID: RoleVillager, Name: "Villager", Team: FactionVillage, Active: true},
	RoleWerewolf:  {ID: RoleWerewolf, Name: "Werewolf", Team: FactionWolves, Active: true},
	RoleSeer:      {ID: RoleSeer, Name: "Seer", Team: FactionVillage, Active: true, Powers: []PowerID{PowerSeerReveal}},
	RoleWitch:     {ID: RoleWitch, Name: "Witch", Team: FactionVillage, Active: true, Powers: []PowerID{PowerWitchSave, PowerWitchPoison}},
	RoleBodyguard: {ID: RoleBodyguard, Name: "Bodyguard", Team: FactionVillage, Active: true, Powers: []PowerID{PowerBodyguardProtect}},
	RoleCupid:     {ID: RoleCupid, Name: "Cupid", Team: FactionVillage, Active: true, Powers: []PowerID{PowerCupidLink}},
	RoleHunter:    {ID: RoleHunter, Name: "Hunter", Team: FactionVillage, Active: true, Powers: []PowerID{PowerHunterShot}},
	RoleWildChild: {ID: RoleWildChild, Name: "Wild Child", Team: FactionVillage, Active: true, Powers: []PowerID{PowerWildChildModel}},
	RoleTrickster: {ID: RoleTrickster, Name: "Trickster", Team: FactionSolo, Active: true, Powers: []PowerID{PowerTricksterSwap}},
}

var powers = map[PowerID]Power{
	PowerSeerReveal: {
		ID: PowerSeerReveal, Role: RoleSeer, Name: "Reveal",
		NightOnly: true, OncePerPhase: true, Targets: 1, Visibility: VisibilityActor,
	},
	PowerWitchSave: {
		ID: PowerWitchSave, Role: RoleWitch, Name: "Healing Potion",
		NightOnly: true, UsesPerGame: 1, Targets: 0, Visibility: VisibilityActor,
	},
	PowerWitchPoison: {
		ID: PowerWitchPoison, Role: RoleWitch, Name: "Poison Potion",
		NightOnly: true, UsesPerGame: 1, Targets: 1, Visibility: VisibilityActor,
	},
	PowerBodyguardProtect: {
		ID: PowerBodyguardProtect, Role: RoleBodyguard, Name: "Protect",
		NightOnly: true, OncePerPhase: true, Targets: 1, Visibility: VisibilityActor,
	},
	PowerCupidLink: {
		ID: PowerCupidLink, Role: RoleCupid, Name: "Link Lovers",
		NightOnly: true, UsesPerGame: 1, FirstNightOnly: true, Targets: 2, Visibility: VisibilityActor,
	},
	PowerHunterShot: {
		ID: PowerHunterShot, Role: RoleHunter, Name: "Last Shot",
		UsesPerGame: 1, Targets: 1, Visibility: VisibilityPublic,
	},
	PowerWildChildModel: {
		ID: PowerWildChildModel, Role: RoleWildChild, Name: "Choose Model",
		NightOnly: true, UsesPerGame: 1, Targets: 1, Visibility: VisibilityActor,
	},
	PowerTricksterSwap: {
		ID: PowerTricksterSwap, Role: RoleTrickster, Name: "Swap Roles",
		NightOnly: true, UsesPerGame: 1, Targets: 2, Visibility: VisibilityActor,
	},
}

var items = map[ItemID]Item{
	ItemDoubleVote: {ID: ItemDoubleVote, Name: "Double Vote", Cost: 3},
	ItemImmunity:   {ID: ItemImmunity, Name: "Immunity", Cost: 5},
}

// LookupRole returns the catalog entry for a role
func LookupRole(id RoleID) (Role, bool) {
	r, ok := roles[id]
	return r, ok
}

// LookupPower returns the catalog entry for a power
func LookupPower(id PowerID) (Power, bool) {
	p, ok := powers[id]
	return p, ok
}

// LookupItem returns the catalog entry for a shop item
func LookupItem(id ItemID) (Item, bool) {
	i, ok := items[id]
	return i, ok
}

// Roles returns every active role sorted by ID
func Roles() []Role {
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		if r.Active {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Items returns every shop item sorted by ID
func Items() []Item {
	out := make([]Item, 0, len(items))
	for _, i := range items {
		out = append(out, i)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ValidateExtraRoles checks that every extra role exists and is a special
// role rather than a plain villager
func ValidateExtraRoles(ids []RoleID) error {
	for _, id := range ids {
		r, ok := LookupRole(id)
		if !ok || !r.Active {
			return fmt.Errorf("%w: unknown role %q", ErrInvalidSettings, id)
		}
		if id == RoleVillager {
			return fmt.Errorf("%w: villager is not a special role", ErrInvalidSettings)
		}
	}
	return nil
}
