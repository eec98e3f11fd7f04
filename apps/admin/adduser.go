package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/plany/core/identity"
)

// addUser activates the account registered with email, creating it with its profile and default templates if needed.
func (cli *commandLine) addUser(email, name, pwd string) error {
	ctx := context.Background()
	acc, err := cli.accounts.UpdateOrCreate(ctx, email, name, pwd)
	if err != nil {
		return err
	}

	userCtx := identity.WithUser(ctx, acc.Identity())
	profile, err := cli.store.GetProfile(userCtx)
	if err != nil {
		return errors.Wrap(err, "getting profile")
	}
	if profile != nil {
		return nil
	}
	if _, err = cli.store.CreateProfile(userCtx, acc.Name(), acc.Email); err != nil {
		return errors.Wrap(err, "creating profile")
	}
	_, err = cli.store.SeedDefaultTemplates(userCtx)
	return errors.Wrap(err, "seeding default templates")
}
