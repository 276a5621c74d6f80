package homework

import "fmt"

// verdicts maps every status the API may report to its chat text.
var verdicts = map[Status]string{
	StatusApproved:   "Работа проверена: ревьюеру всё понравилось. Ура!",
	StatusReviewing:  "Работа взята на проверку ревьюером.",
	StatusRejected:   "Работа проверена: у ревьюера есть замечания.",
	StatusUnassigned: "Статус для работы не назначен.",
}

// Verdict looks up the text for status.
func Verdict(status Status) (string, error) {
	v, ok := verdicts[status]
	if !ok {
		return "", NewError(KindUnknownStatus, "extract", fmt.Sprintf("status %q is not in the verdict table", string(status)))
	}
	return v, nil
}

// ExtractVerdict formats the status-change message for rec.
func ExtractVerdict(rec Record) (string, error) {
	if err := checkRequired(rec); err != nil {
		return "", err
	}
	verdict, err := Verdict(rec.Status)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Изменился статус проверки работы \"%s\". %s", rec.Name, verdict), nil
}

// LatestStatusMessage formats the one-shot "latest status" report.
func LatestStatusMessage(rec Record) (string, error) {
	if err := checkRequired(rec); err != nil {
		return "", err
	}
	verdict, err := Verdict(rec.Status)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Статус последнего задания \"%s\": %s", rec.Name, verdict), nil
}

func checkRequired(rec Record) error {
	switch {
	case rec.notObject != "":
		return NewError(KindMalformedResponse, "extract", fmt.Sprintf("homework record is %s, not an object", rec.notObject))
	case rec.IsEmpty():
		return NewError(KindMalformedResponse, "extract", "homework record is empty")
	case !rec.hasName:
		return NewError(KindMalformedResponse, "extract", "homework record has no homework_name")
	case !rec.hasStatus:
		return NewError(KindMalformedResponse, "extract", "homework record has no status")
	}
	return nil
}
