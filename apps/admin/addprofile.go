package main

import (
	"context"
	"fmt"

	"github.com/agridesk/portal/core"
	"github.com/agridesk/portal/core/profile"
)

// addProfile registers a profile.Profile for an externally-managed identity.
func (cli *commandLine) addProfile(id, email, name, role, phone string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	role = core.CleanString(role, true /* lower */)

	valid := false
	for _, r := range profile.AllRoles {
		if role == r {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown role %q", role)
	}

	if _, err := cli.profSvc.GetByID(ctx, id); err == nil {
		return fmt.Errorf("profile %q already exists", id)
	} else if err != profile.ErrNotFound {
		return err
	}
	if _, err := cli.profSvc.GetByEmail(ctx, email); err == nil {
		return fmt.Errorf("email %q already registered", email)
	} else if err != profile.ErrNotFound {
		return err
	}

	_, err := cli.profSvc.Create(ctx, profile.NewProfile{
		ID:       id,
		Email:    email,
		FullName: core.CleanString(name),
		Role:     role,
		Phone:    phone,
	})
	return err
}

// listProfiles prints every registered profile.
func (cli *commandLine) listProfiles() error {
	profs, err := cli.profSvc.QueryAll(context.Background())
	if err != nil {
		return err
	}
	for _, prof := range profs {
		fmt.Printf("%s\t%s\t%s\t%s\n", prof.ID, prof.Role, prof.Email, prof.FullName)
	}
	return nil
}
