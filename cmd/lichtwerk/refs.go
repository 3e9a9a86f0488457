package main

import (
	"fmt"
	"strconv"
	"strings"

	"lichtwerk/internal/order"
	"lichtwerk/internal/services"
	"lichtwerk/internal/tour"
)

// resolveStack finds a stack by its 1-based position or a unique ID prefix.
func resolveStack(stacks []order.Stack, ref string) (order.Stack, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return order.Stack{}, fmt.Errorf("%w: empty stack reference", services.ErrValidation)
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(stacks) {
			return order.Stack{}, fmt.Errorf("%w: stack #%d (job has %d)", services.ErrNotFound, n, len(stacks))
		}
		return stacks[n-1], nil
	}
	var matches []order.Stack
	for _, stack := range stacks {
		if strings.HasPrefix(stack.ID, strings.ToLower(ref)) {
			matches = append(matches, stack)
		}
	}
	switch len(matches) {
	case 0:
		return order.Stack{}, fmt.Errorf("%w: stack %q", services.ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return order.Stack{}, fmt.Errorf("%w: stack reference %q is ambiguous", services.ErrValidation, ref)
	}
}

// resolveAsset finds an asset by file name or a unique ID prefix.
func resolveAsset(assets []order.Asset, ref string) (order.Asset, error) {
	ref = strings.TrimSpace(ref)
	var matches []order.Asset
	for _, asset := range assets {
		if asset.Name == ref || asset.ID == ref {
			return asset, nil
		}
		if ref != "" && strings.HasPrefix(asset.ID, strings.ToLower(ref)) {
			matches = append(matches, asset)
		}
	}
	switch len(matches) {
	case 0:
		return order.Asset{}, fmt.Errorf("%w: asset %q", services.ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return order.Asset{}, fmt.Errorf("%w: asset reference %q is ambiguous", services.ErrValidation, ref)
	}
}

// resolvePanorama accepts a panorama ID prefix or the name of its source asset.
func resolvePanorama(t tour.Tour, assets []order.Asset, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if asset, err := resolveAsset(assets, ref); err == nil {
		id := tour.PanoramaID(asset.ID)
		for _, p := range t.Panoramas {
			if p.ID == id {
				return id, nil
			}
		}
	}
	var matches []string
	for _, p := range t.Panoramas {
		if ref != "" && strings.HasPrefix(p.ID, strings.ToLower(ref)) {
			matches = append(matches, p.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %q", tour.ErrUnknownPanorama, ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: panorama reference %q is ambiguous", services.ErrValidation, ref)
	}
}
