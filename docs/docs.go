// Package docs holds the OpenAPI document served under /docs.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "email": "suporte@caixinha.local"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register a new user",
                "responses": {
                    "200": {"description": "User registered"},
                    "409": {"description": "E-mail already registered"},
                    "422": {"description": "Validation error"}
                }
            }
        },
        "/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and issue a JWT",
                "responses": {
                    "200": {"description": "Token issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/quotas": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Quotas"],
                "summary": "Read the caller's quota and installments",
                "responses": {
                    "200": {"description": "Quota view"},
                    "404": {"description": "No quota registered"}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Quotas"],
                "summary": "Register quotas for the caller",
                "responses": {
                    "200": {"description": "Quota registered"},
                    "403": {"description": "Admins cannot hold quotas"},
                    "409": {"description": "An active quota already exists"}
                }
            }
        },
        "/quotas/add": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Quotas"],
                "summary": "Add quotas to the active subscription",
                "responses": {
                    "200": {"description": "Quotas added"},
                    "404": {"description": "No active quota"}
                }
            }
        },
        "/quotas/cancel": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Quotas"],
                "summary": "Cancel the active quota subscription",
                "responses": {
                    "200": {"description": "Quota cancelled"},
                    "400": {"description": "Wrong confirmation phrase"},
                    "409": {"description": "Open obligations remain"}
                }
            }
        },
        "/quotas/payments/{id}/pay": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Payments"],
                "summary": "Submit an installment payment",
                "responses": {
                    "200": {"description": "Payment submitted"},
                    "400": {"description": "Invalid payment method"},
                    "404": {"description": "Installment not found"}
                }
            }
        },
        "/loans": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Loans"],
                "summary": "List the caller's loans",
                "responses": {
                    "200": {"description": "Loans"}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Loans"],
                "summary": "Request a loan",
                "responses": {
                    "200": {"description": "Loan requested"},
                    "400": {"description": "Over the monthly obligation"},
                    "409": {"description": "Not eligible or open loan exists"}
                }
            }
        },
        "/raffles/current": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Raffles"],
                "summary": "Read the current raffle and its numbers",
                "responses": {
                    "200": {"description": "Raffle view"},
                    "404": {"description": "No open raffle"}
                }
            }
        },
        "/raffles/current/reserve": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Raffles"],
                "summary": "Reserve raffle numbers",
                "responses": {
                    "200": {"description": "Numbers reserved"},
                    "409": {"description": "A chosen number is already taken"}
                }
            }
        },
        "/raffles/tickets/{id}/pay": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Raffles"],
                "summary": "Submit a ticket payment",
                "responses": {
                    "200": {"description": "Payment submitted"},
                    "404": {"description": "Ticket not found"}
                }
            }
        },
        "/admin/payments": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "List installments awaiting confirmation",
                "responses": {
                    "200": {"description": "Pending payments"},
                    "403": {"description": "Admin role required"}
                }
            }
        },
        "/admin/payments/{id}/confirm": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Confirm an installment payment",
                "responses": {
                    "200": {"description": "Payment confirmed"},
                    "409": {"description": "Installment is not awaiting confirmation"}
                }
            }
        },
        "/admin/payments/{id}/reject": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Reject an installment payment",
                "responses": {
                    "200": {"description": "Payment rejected"},
                    "409": {"description": "Installment is not awaiting confirmation"}
                }
            }
        },
        "/admin/loans/pending": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "List pending loan requests",
                "responses": {
                    "200": {"description": "Pending loans"},
                    "403": {"description": "Admin role required"}
                }
            }
        },
        "/admin/loans/{id}/approve": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Approve a loan",
                "responses": {
                    "200": {"description": "Loan approved"},
                    "409": {"description": "Loan is not pending"}
                }
            }
        },
        "/admin/loans/{id}/reject": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Reject a loan",
                "responses": {
                    "200": {"description": "Loan rejected"},
                    "409": {"description": "Loan is not pending"}
                }
            }
        },
        "/admin/loans/{id}/settle": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Settle a loan",
                "responses": {
                    "200": {"description": "Loan settled"},
                    "409": {"description": "Loan is not open"}
                }
            }
        },
        "/admin/raffles/tickets/confirm": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Confirm ticket payments in batch",
                "responses": {
                    "200": {"description": "Tickets confirmed"}
                }
            }
        },
        "/admin/raffles/tickets/reject": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Reject ticket payments in batch",
                "responses": {
                    "200": {"description": "Tickets rejected"}
                }
            }
        },
        "/admin/raffles/{id}/draw": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Draw the raffle from the lottery result",
                "responses": {
                    "200": {"description": "Raffle drawn"},
                    "400": {"description": "Invalid lottery result"},
                    "409": {"description": "Raffle already drawn"}
                }
            }
        },
        "/admin/dashboard": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Read the financial dashboard",
                "responses": {
                    "200": {"description": "Dashboard"},
                    "403": {"description": "Admin role required"}
                }
            }
        },
        "/admin/revenue": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Read the monthly revenue of a year",
                "responses": {
                    "200": {"description": "Revenue entries"},
                    "400": {"description": "Invalid year"}
                }
            }
        },
        "/admin/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "List users",
                "responses": {
                    "200": {"description": "Users"}
                }
            }
        },
        "/admin/users/{id}/role": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Change a user's role",
                "responses": {
                    "200": {"description": "Role updated"},
                    "409": {"description": "Admin ceiling reached"}
                }
            }
        },
        "/admin/config": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Read the system configuration",
                "responses": {
                    "200": {"description": "Configuration"}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Update the system configuration",
                "responses": {
                    "200": {"description": "Configuration updated"}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Caixinha API",
	Description:      "API do clube caixinha: cotas, parcelas mensais, empréstimos e sorteios.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
