package nitro

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
)

// Object describes one appliance object type. Fields is the closed set of
// attributes the API accepts for the type; the first field is the object's
// key and names the resource in paths. EnableDisable marks types that
// accept the enable/disable actions.
type Object struct {
	Fields        []string
	EnableDisable bool
}

// registry is the whole wrapper: every supported object type and its field
// list, consumed by the generic operations below. Adding a type here is all
// it takes to support it end to end.
var registry = map[string]Object{
	// SSL VPN / gateway
	"vpnvserver": {Fields: []string{
		"name", "servicetype", "ipv46", "port", "range", "authentication",
		"icaonly", "maxaaausers", "downstateflush", "listenpolicy", "comment",
	}, EnableDisable: true},
	"vpnsessionaction": {Fields: []string{
		"name", "sesstimeout", "defaultauthorizationaction", "sso", "icaproxy",
		"wihome", "clientlessvpnmode", "splittunnel", "transparentinterception",
		"clientidletimeout", "proxy", "homepage",
	}},
	"vpnsessionpolicy":  {Fields: []string{"name", "rule", "action"}},
	"vpntrafficaction":  {Fields: []string{"name", "qual", "apptimeout", "sso", "hdx", "formssoaction"}},
	"vpntrafficpolicy":  {Fields: []string{"name", "rule", "action"}},
	"vpnurl":            {Fields: []string{"urlname", "linkname", "actualurl", "vservername", "clientlessaccess", "comment"}},
	"vpnintranetapplication": {Fields: []string{
		"intranetapplication", "protocol", "destip", "netmask", "iprange",
		"hostname", "destport", "interception",
	}},
	"vpnclientlessaccesspolicy":  {Fields: []string{"name", "rule", "profilename"}},
	"vpnclientlessaccessprofile": {Fields: []string{"profilename", "urlrewritepolicylabel", "requirepersistentcookie"}},

	// VPN bindings
	"vpnvserver_vpnsessionpolicy_binding":           {Fields: []string{"name", "policy", "priority", "bindpoint"}},
	"vpnvserver_vpntrafficpolicy_binding":           {Fields: []string{"name", "policy", "priority"}},
	"vpnvserver_vpnclientlessaccesspolicy_binding":  {Fields: []string{"name", "policy", "priority"}},
	"vpnvserver_vpnurl_binding":                     {Fields: []string{"name", "urlname"}},
	"vpnvserver_vpnintranetapplication_binding":     {Fields: []string{"name", "intranetapplication"}},
	"vpnvserver_authenticationldappolicy_binding":   {Fields: []string{"name", "policy", "priority", "secondary"}},
	"vpnvserver_authenticationradiuspolicy_binding": {Fields: []string{"name", "policy", "priority", "secondary"}},
	"vpnglobal_vpnsessionpolicy_binding":            {Fields: []string{"policyname", "priority"}},
	"vpnglobal_vpnurl_binding":                      {Fields: []string{"urlname"}},
	"vpnglobal_intranetip_binding":                  {Fields: []string{"intranetip", "netmask"}},

	// Authentication
	"authenticationldapaction": {Fields: []string{
		"name", "serverip", "serverport", "ldapbase", "ldapbinddn",
		"ldapbinddnpassword", "ldaploginname", "searchfilter", "groupattrname",
		"subattributename", "sectype", "ssonameattribute",
	}},
	"authenticationldappolicy": {Fields: []string{"name", "rule", "reqaction"}},
	"authenticationradiusaction": {Fields: []string{
		"name", "serverip", "serverport", "radkey", "radnasip", "radnasid", "radtimeout",
	}},
	"authenticationradiuspolicy": {Fields: []string{"name", "rule", "reqaction"}},

	// Load balancing
	"lbvserver": {Fields: []string{
		"name", "servicetype", "ipv46", "port", "persistencetype", "lbmethod",
		"backupvserver", "clttimeout", "redirurl", "comment",
	}, EnableDisable: true},
	"lbvserver_service_binding":      {Fields: []string{"name", "servicename", "weight"}},
	"lbvserver_servicegroup_binding": {Fields: []string{"name", "servicegroupname"}},
	"lbmonitor": {Fields: []string{
		"monitorname", "type", "interval", "resptimeout", "retries", "downtime",
		"destport", "httprequest", "respcode",
	}},

	// Services and servers
	"service": {Fields: []string{
		"name", "ip", "servername", "servicetype", "port", "maxclient",
		"maxreq", "clttimeout", "svrtimeout", "comment",
	}, EnableDisable: true},
	"service_lbmonitor_binding": {Fields: []string{"name", "monitor_name", "monstate", "weight"}},
	"servicegroup": {Fields: []string{
		"servicegroupname", "servicetype", "maxclient", "maxreq", "cacheable",
		"clttimeout", "svrtimeout", "comment",
	}, EnableDisable: true},
	"servicegroup_lbmonitor_binding":           {Fields: []string{"servicegroupname", "monitor_name", "monstate", "weight"}},
	"servicegroup_servicegroupmember_binding":  {Fields: []string{"servicegroupname", "ip", "servername", "port", "weight"}},
	"server": {Fields: []string{
		"name", "ipaddress", "domain", "translationip", "translationmask", "comment",
	}, EnableDisable: true},

	// Content switching
	"csvserver":                  {Fields: []string{"name", "servicetype", "ipv46", "port", "clttimeout", "comment"}, EnableDisable: true},
	"cspolicy":                   {Fields: []string{"policyname", "rule", "action"}},
	"csaction":                   {Fields: []string{"name", "targetlbvserver", "comment"}},
	"csvserver_cspolicy_binding": {Fields: []string{"name", "policyname", "priority", "targetlbvserver"}},

	// SSL
	"sslcertkey": {Fields: []string{
		"certkey", "cert", "key", "password", "inform", "expirymonitor", "notificationperiod",
	}},
	"sslvserver":                    {Fields: []string{"vservername", "ssl2", "ssl3", "tls1", "tls11", "tls12"}},
	"sslvserver_sslcertkey_binding": {Fields: []string{"vservername", "certkeyname", "snicert"}},

	// System and network plumbing
	"systemuser":    {Fields: []string{"username", "password", "timeout"}},
	"systemgroup":   {Fields: []string{"groupname", "timeout"}},
	"nsip":          {Fields: []string{"ipaddress", "netmask", "type", "arp", "icmp", "mgmtaccess"}},
	"route":         {Fields: []string{"network", "netmask", "gateway", "distance"}},
	"dnsnameserver": {Fields: []string{"ip", "local", "state"}},
	"dnsaddrec":     {Fields: []string{"hostname", "ipaddress", "ttl"}},
	"snmpcommunity": {Fields: []string{"communityname", "permissions"}},
	"snmptrap":      {Fields: []string{"trapclass", "trapdestination", "version"}},
}

// ObjectTypes returns every supported object type, sorted.
func ObjectTypes() []string {
	types := make([]string, 0, len(registry))
	for name := range registry {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

// Fields returns the accepted attribute names for an object type.
func Fields(objType string) ([]string, error) {
	spec, err := lookup(objType)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), spec.Fields...), nil
}

func lookup(objType string) (Object, error) {
	spec, ok := registry[objType]
	if !ok {
		return Object{}, fmt.Errorf("unsupported object type: %s", objType)
	}
	return spec, nil
}

// buildPayload wraps attrs in the type envelope the API expects, rejecting
// attributes the type does not accept before any request goes out.
func buildPayload(objType string, attrs map[string]any) (map[string]any, error) {
	spec, err := lookup(objType)
	if err != nil {
		return nil, err
	}

	for name := range attrs {
		if !fieldKnown(spec, name) {
			return nil, fmt.Errorf("object type %s has no field %q", objType, name)
		}
	}

	return map[string]any{objType: attrs}, nil
}

func fieldKnown(spec Object, name string) bool {
	for _, f := range spec.Fields {
		if f == name {
			return true
		}
	}
	return false
}

func configPath(objType string) string {
	return configBasePath + objType
}

func resourcePath(objType, name string) string {
	return configBasePath + objType + "/" + url.PathEscape(name)
}

// Add creates a new object of the given type.
func (c *Client) Add(ctx context.Context, objType string, attrs map[string]any) error {
	payload, err := buildPayload(objType, attrs)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, configPath(objType), payload, nil, objType)
}

// Update modifies an existing object; attrs must include the type's key
// field so the appliance can address it.
func (c *Client) Update(ctx context.Context, objType string, attrs map[string]any) error {
	payload, err := buildPayload(objType, attrs)
	if err != nil {
		return err
	}

	spec, _ := lookup(objType)
	if _, ok := attrs[spec.Fields[0]]; !ok {
		return fmt.Errorf("update of %s requires the key field %q", objType, spec.Fields[0])
	}

	return c.do(ctx, http.MethodPut, configPath(objType), payload, nil, objType)
}

// Get fetches one object by its key.
func (c *Client) Get(ctx context.Context, objType, name string) (map[string]any, error) {
	resources, err := c.fetch(ctx, objType, resourcePath(objType, name))
	if err != nil {
		return nil, err
	}
	if len(resources) == 0 {
		return nil, fmt.Errorf("%s %q not found", objType, name)
	}
	return resources[0], nil
}

// GetAll fetches every object of the given type.
func (c *Client) GetAll(ctx context.Context, objType string) ([]map[string]any, error) {
	return c.fetch(ctx, objType, configPath(objType))
}

func (c *Client) fetch(ctx context.Context, objType, path string) ([]map[string]any, error) {
	if _, err := lookup(objType); err != nil {
		return nil, err
	}

	var out map[string]any
	if err := c.do(ctx, http.MethodGet, path, nil, &out, objType); err != nil {
		return nil, err
	}

	// The response envelope keys resources by their type; a single object
	// may come back as a bare map instead of a one-element list.
	switch raw := out[objType].(type) {
	case nil:
		return []map[string]any{}, nil
	case map[string]any:
		return []map[string]any{raw}, nil
	case []any:
		resources := make([]map[string]any, 0, len(raw))
		for _, item := range raw {
			if m, ok := item.(map[string]any); ok {
				resources = append(resources, m)
			}
		}
		return resources, nil
	default:
		return nil, fmt.Errorf("unexpected %s payload shape %T", objType, raw)
	}
}

// Delete removes one object by its key. Binding types usually need extra
// discriminating attributes; pass those in args and they become query
// parameters.
func (c *Client) Delete(ctx context.Context, objType, name string, args map[string]string) error {
	if _, err := lookup(objType); err != nil {
		return err
	}

	path := resourcePath(objType, name)
	if len(args) > 0 {
		values := url.Values{}
		for k, v := range args {
			values.Set(k, v)
		}
		path += "?args=" + url.QueryEscape(encodeArgs(values))
	}

	return c.do(ctx, http.MethodDelete, path, nil, nil, objType)
}

// encodeArgs renders the appliance's comma-separated args form,
// "key:value,key:value", with deterministic key order.
func encodeArgs(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ","
		}
		out += k + ":" + values.Get(k)
	}
	return out
}

// Enable turns an object on. Only types flagged in the table accept this.
func (c *Client) Enable(ctx context.Context, objType, name string) error {
	return c.action(ctx, objType, name, "enable")
}

// Disable turns an object off.
func (c *Client) Disable(ctx context.Context, objType, name string) error {
	return c.action(ctx, objType, name, "disable")
}

func (c *Client) action(ctx context.Context, objType, name, action string) error {
	spec, err := lookup(objType)
	if err != nil {
		return err
	}
	if !spec.EnableDisable {
		return fmt.Errorf("object type %s does not support %s", objType, action)
	}

	payload := map[string]any{
		objType: map[string]any{spec.Fields[0]: name},
	}
	return c.do(ctx, http.MethodPost, configPath(objType)+"?action="+action, payload, nil, objType)
}

// Save persists the appliance's running configuration.
func (c *Client) Save(ctx context.Context) error {
	payload := map[string]any{"nsconfig": map[string]any{}}
	return c.do(ctx, http.MethodPost, configBasePath+"nsconfig?action=save", payload, nil, "nsconfig")
}
