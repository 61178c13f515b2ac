package storage

import (
	"sort"

	"github.com/atinyakov/go-link-gate/internal/models"
)

func sortAccounts(accounts []models.Account) {
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].Created.Equal(accounts[j].Created) {
			return accounts[i].Name < accounts[j].Name
		}
		return accounts[i].Created.Before(accounts[j].Created)
	})
}
