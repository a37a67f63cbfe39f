// Package signature takes an advisory Authenticode snapshot of a file
// by shelling out to PowerShell. It never errors and never touches
// archive state; a probe failure simply reports Status "Unknown".
package signature

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// Status mirrors the fields Get-AuthenticodeSignature exposes.
type Status struct {
	Status        string
	StatusMessage string
	Signer        string
	Timestamp     string
}

func unknown(message string) Status {
	return Status{Status: "Unknown", StatusMessage: message}
}

// Probe runs Get-AuthenticodeSignature against path and parses its
// JSON output. Any failure (missing powershell, non-zero exit, bad
// JSON) degrades to an Unknown status instead of an error.
func Probe(path string) Status {
	script := fmt.Sprintf(
		`$s=Get-AuthenticodeSignature -FilePath '%s';`+
			`[pscustomobject]@{`+
			`Status=$s.Status.ToString();`+
			`StatusMessage=$s.StatusMessage;`+
			`Signer=if($s.SignerCertificate){$s.SignerCertificate.Subject}else{''};`+
			`Timestamp=if($s.TimeStamperCertificate){$s.TimeStamperCertificate.Subject}else{''}`+
			`}|ConvertTo-Json -Compress`,
		strings.ReplaceAll(path, "'", "''"))

	cmd := exec.Command("powershell", "-NoProfile", "-Command", script)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "signature check failed"
		}
		return unknown(msg)
	}

	var parsed struct {
		Status        string `json:"Status"`
		StatusMessage string `json:"StatusMessage"`
		Signer        string `json:"Signer"`
		Timestamp     string `json:"Timestamp"`
	}
	out := strings.TrimSpace(stdout.String())
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		msg := out
		if msg == "" {
			msg = "no signature output"
		}
		return unknown(msg)
	}

	status := parsed.Status
	if status == "" {
		status = "Unknown"
	}
	return Status{
		Status:        status,
		StatusMessage: parsed.StatusMessage,
		Signer:        parsed.Signer,
		Timestamp:     parsed.Timestamp,
	}
}
