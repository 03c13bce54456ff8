package services

import (
	"github.com/churchquest/xpcore/models"
	"github.com/churchquest/xpcore/xp"
)

// categoryColumns returns the current and lifetime user columns of a category.
func categoryColumns(c xp.Category) (string, string) {
	switch c {
	case xp.CategorySpiritual:
		return "xp_spiritual", "lifetime_xp_spiritual"
	case xp.CategoryService:
		return "xp_service", "lifetime_xp_service"
	case xp.CategoryCommunity:
		return "xp_community", "lifetime_xp_community"
	case xp.CategoryCreativity:
		return "xp_creativity", "lifetime_xp_creativity"
	case xp.CategoryReflection:
		return "xp_reflection", "lifetime_xp_reflection"
	default:
		return "xp_other", "lifetime_xp_other"
	}
}

func categoryValues(u *models.User, c xp.Category) (int, int) {
	switch c {
	case xp.CategorySpiritual:
		return u.XPSpiritual, u.LifetimeXPSpiritual
	case xp.CategoryService:
		return u.XPService, u.LifetimeXPService
	case xp.CategoryCommunity:
		return u.XPCommunity, u.LifetimeXPCommunity
	case xp.CategoryCreativity:
		return u.XPCreativity, u.LifetimeXPCreativity
	case xp.CategoryReflection:
		return u.XPReflection, u.LifetimeXPReflection
	default:
		return u.XPOther, u.LifetimeXPOther
	}
}
