package discovery

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// System-property keys the core reads (§6).
const (
	keyEnableWorkerHTTPServers = "conf.enable_worker_http_servers"
	keyWorkerHTTPServerURLs    = "conf.worker_http_server_urls"
	keyWorkerHTTPServerIPs     = "conf.worker_http_server_ips"
	keyWorkerHTTPServerPorts   = "conf.worker_http_server_ports"
)

func multiHeadEnabled(props map[string]string) bool {
	return props[keyEnableWorkerHTTPServers] == "TRUE"
}

// parseRankList splits a ";"-separated list of ranks, each rank itself a
// ","-separated list of alternative addresses.
func parseRankList(raw string) [][]string {
	if raw == "" {
		return nil
	}
	ranks := strings.Split(raw, ";")
	out := make([][]string, len(ranks))
	for i, rank := range ranks {
		alts := strings.Split(rank, ",")
		for j, a := range alts {
			alts[j] = strings.TrimSpace(a)
		}
		out[i] = alts
	}
	return out
}

// selectByRegex returns the first candidate in alts whose host matches re
// (a nil re matches everything), or an error if none match.
func selectByRegex(alts []string, re *regexp.Regexp, rank int) (string, error) {
	for _, candidate := range alts {
		if re == nil {
			return candidate, nil
		}
		host := candidate
		if u, err := url.Parse(candidate); err == nil && u.Host != "" {
			host = u.Hostname()
		} else if h, _, err := splitHostPort(candidate); err == nil {
			host = h
		}
		if re.MatchString(host) {
			return candidate, nil
		}
	}
	return "", errors.Errorf("discovery: no address for rank %d matches the configured IP regex", rank)
}

func splitHostPort(s string) (string, string, error) {
	idx := strings.LastIndex(s, ":")
	if idx < 0 {
		return "", "", errors.New("no port")
	}
	return s[:idx], s[idx+1:], nil
}

// resolveWorkerURLs builds the ordered list of non-head worker endpoints
// (§4.D). urlsRaw takes precedence over the ip/port pair when both keys are
// present, matching "worker_http_server_urls (preferred)".
func resolveWorkerURLs(props map[string]string, scheme string, ipRegex *regexp.Regexp) ([]string, error) {
	if raw, ok := props[keyWorkerHTTPServerURLs]; ok && raw != "" {
		ranks := parseRankList(raw)
		return selectRanks(ranks, ipRegex)
	}

	ipsRaw, hasIPs := props[keyWorkerHTTPServerIPs]
	portsRaw, hasPorts := props[keyWorkerHTTPServerPorts]
	if !hasIPs || !hasPorts {
		return nil, errors.Errorf("discovery: multi-head enabled but neither %s nor the %s/%s pair is set",
			keyWorkerHTTPServerURLs, keyWorkerHTTPServerIPs, keyWorkerHTTPServerPorts)
	}

	ipRanks := parseRankList(ipsRaw)
	portRanks := parseRankList(portsRaw)
	if len(ipRanks) != len(portRanks) {
		return nil, errors.Errorf("discovery: %s has %d ranks but %s has %d",
			keyWorkerHTTPServerIPs, len(ipRanks), keyWorkerHTTPServerPorts, len(portRanks))
	}

	synthesized := make([][]string, len(ipRanks))
	for i := range ipRanks {
		ips, ports := ipRanks[i], portRanks[i]
		if len(ips) != len(ports) {
			return nil, errors.Errorf("discovery: rank %d has %d ips but %d ports", i, len(ips), len(ports))
		}
		alts := make([]string, len(ips))
		for j := range ips {
			alts[j] = fmt.Sprintf("%s://%s:%s", scheme, ips[j], ports[j])
		}
		synthesized[i] = alts
	}
	return selectRanks(synthesized, ipRegex)
}

// selectRanks applies selectByRegex to every rank after rank 0, which is
// the head and is always skipped (§4.D).
func selectRanks(ranks [][]string, ipRegex *regexp.Regexp) ([]string, error) {
	if len(ranks) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(ranks)-1)
	for i, alts := range ranks {
		if i == 0 {
			continue
		}
		picked, err := selectByRegex(alts, ipRegex, i)
		if err != nil {
			return nil, err
		}
		out = append(out, picked)
	}
	return out, nil
}
