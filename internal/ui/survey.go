package ui

import "github.com/AlecAivazis/survey/v2"

// IconOption sets the question icon to "-" for every survey prompt.
func IconOption() survey.AskOpt {
	return survey.WithIcons(func(icons *survey.IconSet) {
		icons.Question.Text = "-"
	})
}

// Confirm asks a yes/no question with the shared icon style.
func Confirm(message string, defaultYes bool) (bool, error) {
	answer := false
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultYes,
	}
	if err := survey.AskOne(prompt, &answer, IconOption()); err != nil {
		return false, err
	}
	return answer, nil
}
