package session

import "github.com/GriffinCanCode/chatgate/internal/shared/types"

// ResolveProxy returns the effective proxy for req: the request's own proxy,
// then the proxy of the active session with the same name, else nil.
// Inputs are not modified; the result is a copy.
func ResolveProxy(req types.StartRequest, active map[string]*types.ProxyConfig) *types.ProxyConfig {
	if req.Config != nil && req.Config.Proxy != nil {
		return req.Config.Proxy.Clone()
	}
	if p, ok := active[req.Name]; ok && p != nil {
		return p.Clone()
	}
	return nil
}
