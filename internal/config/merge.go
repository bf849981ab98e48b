package config

// MergeRules merges repository rule overrides over the base rules.
// Repo values take precedence when set; worker limits stay with the host.
func MergeRules(base RulesConfig, repo *RepoConfig) RulesConfig {
	merged := RulesConfig{
		Workers:        base.Workers,
		Placeholders:   coalesceList(repo.Rules.Placeholders, base.Placeholders),
		DeprecatedURLs: coalesceList(repo.Rules.DeprecatedURLs, base.DeprecatedURLs),
		UnknownKeys:    coalesce(repo.Rules.UnknownKeys, base.UnknownKeys),
		FailOnWarnings: base.FailOnWarnings,
	}
	if repo.Rules.FailOnWarnings != nil {
		merged.FailOnWarnings = *repo.Rules.FailOnWarnings
	}

	// Extra required fields accumulate: a repo can tighten, never loosen.
	if len(base.ExtraRequired) > 0 || len(repo.Rules.ExtraRequired) > 0 {
		merged.ExtraRequired = make(map[string][]string)
		for k, v := range base.ExtraRequired {
			merged.ExtraRequired[k] = append(merged.ExtraRequired[k], v...)
		}
		for k, v := range repo.Rules.ExtraRequired {
			merged.ExtraRequired[k] = append(merged.ExtraRequired[k], v...)
		}
	}

	return merged
}

func coalesce(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func coalesceList(a, b []string) []string {
	if len(a) > 0 {
		return append([]string{}, a...)
	}
	return append([]string{}, b...)
}
