// Package scm materializes repository contents at the triggering ref.
package scm

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/sofmeright/slipway/src/event"
)

// Checkout ensures dir holds the repository contents at the ref named by the
// event. CI runners usually hand us a pre-cloned working directory, so an
// existing repository is opened and moved to the ref; an absent one is
// cloned from url. Returns the resolved commit SHA.
//
// Pull-request events check out the merge target's current state — the host
// runner owns the actual merge-ref plumbing.
func Checkout(ctx context.Context, dir, url string, ev *event.TriggerEvent) (string, error) {
	repo, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		if url == "" {
			return "", fmt.Errorf("%s is not a git repository and no clone URL is configured", dir)
		}
		repo, err = git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
			URL:           url,
			ReferenceName: referenceName(ev),
			SingleBranch:  true,
			Depth:         1,
		})
		if err != nil {
			return "", fmt.Errorf("cloning %s at %s: %w", url, ev.Ref, err)
		}
	} else if err != nil {
		return "", fmt.Errorf("opening repository at %s: %w", dir, err)
	} else {
		wt, err := repo.Worktree()
		if err != nil {
			return "", fmt.Errorf("opening worktree: %w", err)
		}
		if err := wt.Checkout(&git.CheckoutOptions{Branch: referenceName(ev)}); err != nil {
			if !errors.Is(err, plumbing.ErrReferenceNotFound) {
				return "", fmt.Errorf("checking out %s: %w", ev.Ref, err)
			}
			// Shallow CI clones drop the local ref; HEAD is already at the
			// triggering commit there. When a remote-tracking ref for the
			// branch survives, HEAD must match it, otherwise a stale worktree
			// would build the wrong commit.
			head, headErr := repo.Head()
			if headErr != nil {
				return "", fmt.Errorf("checking out %s: %w", ev.Ref, err)
			}
			remoteName := plumbing.NewRemoteReferenceName("origin", ev.Ref)
			if remote, rerr := repo.Reference(remoteName, true); rerr == nil && remote.Hash() != head.Hash() {
				return "", fmt.Errorf("checking out %s: HEAD is %s but %s is %s",
					ev.Ref, shortHash(head.Hash()), remoteName.Short(), shortHash(remote.Hash()))
			}
			return head.Hash().String(), nil
		}
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

func referenceName(ev *event.TriggerEvent) plumbing.ReferenceName {
	if ev.Kind == event.KindTagPush {
		return plumbing.NewTagReferenceName(ev.Ref)
	}
	return plumbing.NewBranchReferenceName(ev.Ref)
}

func shortHash(h plumbing.Hash) string {
	return h.String()[:8]
}
