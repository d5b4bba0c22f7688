// Package templates formats the outreach and follow-up emails. Pure string
// formatting, no HTML rendering.
package templates

import "fmt"

const agentName = "AI Assistant"

// Email is a rendered subject and body pair
type Email struct {
	Subject string
	Body    string
}

// InitialOutreach renders the first solicitation email to an investor. The
// acceptance link lets the investor signal interest with one click.
func InitialOutreach(investorName, founderName, startupName, startupPitch, investorFocus, acceptLink string) Email {
	if investorFocus == "" {
		investorFocus = "your area of interest"
	}
	return Email{
		Subject: fmt.Sprintf("Introduction: %s - Exploring Investment Synergy", startupName),
		Body: fmt.Sprintf(`Dear %s,

My name is %s, and I'm assisting %s, the founder of %s.

%s is working on %s. We noted your interest in %s and thought there might be a potential fit based on our data.

Would you be open to a brief introductory call with %s to learn more?

If you'd like to be connected right away, you can accept here:
%s

Best regards,

%s`, investorName, agentName, founderName, startupName, startupName, startupPitch, investorFocus, founderName, acceptLink, agentName),
	}
}

// InvestorConfirmation renders the confirmation sent to the investor after
// they accept
func InvestorConfirmation(investorName, founderName, startupName string) Email {
	return Email{
		Subject: fmt.Sprintf("Confirmation: Interest in %s", startupName),
		Body: fmt.Sprintf(`Dear %s,

This email confirms that you have expressed interest in learning more about %s and its founder, %s.

We will be connecting you with %s shortly.

Best regards,

%s`, investorName, startupName, founderName, founderName, agentName),
	}
}

// FounderNotification renders the heads-up sent to the founder after an
// investor accepts
func FounderNotification(investorName, founderName, startupName string) Email {
	return Email{
		Subject: fmt.Sprintf("%s is interested in %s!", investorName, startupName),
		Body: fmt.Sprintf(`Dear %s,

%s has expressed interest in learning more about %s.

We have notified %s and will connect you both.

Best regards,

%s`, founderName, investorName, startupName, investorName, agentName),
	}
}

// FollowUpConnection renders the email that CCs both parties together
func FollowUpConnection(investorName, founderName, startupName string) Email {
	return Email{
		Subject: fmt.Sprintf("Re: Introduction: %s - Connecting You Both", startupName),
		Body: fmt.Sprintf(`Great!

%s and %s - connecting you both as requested.

%s, %s has expressed interest in learning more. Please feel free to coordinate directly to find a suitable time.

Best regards,

%s`, investorName, founderName, founderName, investorName, agentName),
	}
}
