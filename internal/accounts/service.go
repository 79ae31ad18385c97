package accounts

import (
	"slices"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/zenith-ledger/zenith/internal/errs"
	"github.com/zenith-ledger/zenith/internal/model"
)

// Invariants checked by Validate.
const (
	InvariantID     = 1
	InvariantName   = 2
	InvariantType   = 3
	InvariantParent = 4
	InvariantCycle  = 5
)

// Node is one entry of the hierarchy view.
type Node struct {
	Account  model.Account
	Children []Node
	Depth    int
}

// Service is the account arena: accounts keyed by ID with parent links.
//
// Service is not safe for concurrent mutation; callers serialize writes.
// Hierarchy may be called from concurrent readers.
type Service struct {
	accounts []model.Account
	byID     map[string]int

	memoMu   sync.Mutex
	memo     map[string][]Node
	collator *collate.Collator
}

// NewService creates a Service from a slice of accounts.
// Later duplicates of an ID replace earlier ones.
func NewService(accounts []model.Account) *Service {
	s := &Service{
		byID:     make(map[string]int, len(accounts)),
		collator: collate.New(language.English),
	}
	for _, a := range accounts {
		s.put(a)
	}
	return s
}

// All returns a copy of all accounts in insertion order.
func (s *Service) All() []model.Account {
	return slices.Clone(s.accounts)
}

// Len returns the number of accounts.
func (s *Service) Len() int {
	return len(s.accounts)
}

// Get returns an account by ID.
func (s *Service) Get(id string) (model.Account, bool) {
	i, ok := s.byID[id]
	if !ok {
		return model.Account{}, false
	}
	return s.accounts[i], true
}

// Find returns an account by ID or a NotFoundError.
func (s *Service) Find(id string) (model.Account, error) {
	a, ok := s.Get(id)
	if !ok {
		return model.Account{}, errs.AccountNotFound(id)
	}
	return a, nil
}

// Exists reports whether an account ID exists.
func (s *Service) Exists(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// ByType returns all accounts of the given type.
func (s *Service) ByType(accountType model.AccountType) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Type == accountType {
			result = append(result, a)
		}
	}
	return result
}

// Children returns the direct children of id in no particular order.
func (s *Service) Children(id string) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.ParentID == id && a.ID != id {
			result = append(result, a)
		}
	}
	return result
}

// Ancestors returns the parent chain of id, nearest first. A parent that
// does not exist ends the chain.
func (s *Service) Ancestors(id string) ([]model.Account, error) {
	acct, err := s.Find(id)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{id: true}
	path := []string{id}
	var chain []model.Account
	for acct.ParentID != "" {
		path = append(path, acct.ParentID)
		if seen[acct.ParentID] {
			return nil, &errs.CycleError{Path: path}
		}
		seen[acct.ParentID] = true
		parent, ok := s.Get(acct.ParentID)
		if !ok {
			break
		}
		chain = append(chain, parent)
		acct = parent
	}
	return chain, nil
}

// Validate checks acct as a candidate for Put without changing anything.
func (s *Service) Validate(acct model.Account) error {
	var verrs []errs.Violation
	add := func(inv int, desc string) {
		verrs = append(verrs, errs.Violation{Invariant: inv, Subject: acct.ID, Description: desc})
	}

	if acct.ID == "" {
		add(InvariantID, "account id is required")
	}
	if acct.Name == "" {
		add(InvariantName, "account name is required")
	}
	if !acct.Type.Valid() {
		add(InvariantType, "unknown account type "+string(acct.Type))
	}
	if acct.ParentID != "" {
		switch {
		case acct.ParentID == acct.ID:
			add(InvariantCycle, "account cannot be its own parent")
		case !s.Exists(acct.ParentID):
			add(InvariantParent, "unknown parent account "+acct.ParentID)
		case acct.ID != "" && s.Exists(acct.ID):
			// Re-parenting under one of its own descendants would close a loop.
			chain, err := s.Ancestors(acct.ParentID)
			if err != nil {
				add(InvariantCycle, err.Error())
				break
			}
			for _, a := range chain {
				if a.ID == acct.ID {
					add(InvariantCycle, "parent "+acct.ParentID+" is a descendant of this account")
					break
				}
			}
		}
	}

	if len(verrs) > 0 {
		return &errs.ValidationError{Violations: verrs}
	}
	return nil
}

// Put validates and inserts or replaces an account.
func (s *Service) Put(acct model.Account) error {
	if err := s.Validate(acct); err != nil {
		return err
	}
	s.put(acct)
	return nil
}

func (s *Service) put(acct model.Account) {
	if i, ok := s.byID[acct.ID]; ok {
		s.accounts[i] = acct
	} else {
		s.byID[acct.ID] = len(s.accounts)
		s.accounts = append(s.accounts, acct)
	}
	s.invalidate()
}

func (s *Service) invalidate() {
	s.memoMu.Lock()
	s.memo = nil
	s.memoMu.Unlock()
}

// Hierarchy returns the direct children of parentID (the roots when
// parentID is empty) sorted by name, each with its subtree. Depth counts
// from 0 at the requested level.
//
// Results are memoized until the next mutation and shared between
// callers; treat them as read-only.
func (s *Service) Hierarchy(parentID string) ([]Node, error) {
	s.memoMu.Lock()
	defer s.memoMu.Unlock()

	if nodes, ok := s.memo[parentID]; ok {
		return nodes, nil
	}

	if parentID != "" && !s.Exists(parentID) {
		return nil, errs.AccountNotFound(parentID)
	}

	onPath := map[string]bool{}
	if parentID != "" {
		onPath[parentID] = true
	}
	nodes, err := s.build(parentID, 0, onPath, []string{parentID})
	if err != nil {
		return nil, err
	}

	if parentID == "" {
		if err := s.checkReachable(nodes); err != nil {
			return nil, err
		}
	}

	if s.memo == nil {
		s.memo = make(map[string][]Node)
	}
	s.memo[parentID] = nodes
	return nodes, nil
}

func (s *Service) build(parentID string, depth int, onPath map[string]bool, path []string) ([]Node, error) {
	children := s.Children(parentID)
	slices.SortStableFunc(children, func(a, b model.Account) int {
		return s.collator.CompareString(a.Name, b.Name)
	})

	nodes := make([]Node, 0, len(children))
	for _, c := range children {
		if onPath[c.ID] {
			return nil, &errs.CycleError{Path: append(slices.Clone(path), c.ID)}
		}
		onPath[c.ID] = true
		sub, err := s.build(c.ID, depth+1, onPath, append(path, c.ID))
		delete(onPath, c.ID)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, Node{Account: c, Children: sub, Depth: depth})
	}
	return nodes, nil
}

// checkReachable turns accounts hidden from the root view by a parent
// loop into a CycleError. Accounts whose parent is simply missing are
// left out of the view without error.
func (s *Service) checkReachable(roots []Node) error {
	seen := make(map[string]bool, len(s.accounts))
	var walk func([]Node)
	walk = func(nodes []Node) {
		for _, n := range nodes {
			seen[n.Account.ID] = true
			walk(n.Children)
		}
	}
	walk(roots)
	if len(seen) == len(s.accounts) {
		return nil
	}
	for _, a := range s.accounts {
		if seen[a.ID] {
			continue
		}
		if _, err := s.Ancestors(a.ID); err != nil {
			return err
		}
	}
	return nil
}
