package domain

// DescriptionRenderer renders the service description of a check plugin
// item on a host.
type DescriptionRenderer interface {
	Describe(host, checkPluginName string, item *string) string
}

// ParameterResolver computes the effective check parameters of a service
// from its discovered (unresolved) parameters and the configured rules.
type ParameterResolver interface {
	Compute(host, checkPluginName string, item *string, unresolved Parameters) Parameters
}
